package testutils

import (
	"context"
	"time"

	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every fixture user.
const DefaultPassword = "1X<ISRUkw+tuK"

// UserOptions tweaks a fixture user.
type UserOptions struct {
	IsStaff     bool
	IsSuperuser bool
	Inactive    bool
	Role        string
	Permissions []string
}

// InsertUser inserts a user with a cheaply hashed password.
func InsertUser(ctx context.Context, db bun.IDB, username, password string, opts UserOptions) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: string(hash),
		IsStaff:      opts.IsStaff,
		IsSuperuser:  opts.IsSuperuser,
		IsActive:     !opts.Inactive,
	}

	if opts.Role != "" {
		role := &models.Role{}
		if err := db.NewSelect().Model(role).Where("name = ?", opts.Role).Scan(ctx); err != nil {
			return nil, errors.Wrapf(err, "role %q", opts.Role)
		}
		user.RoleID = &role.ID
	}

	if _, err := db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	for _, codename := range opts.Permissions {
		perm := &models.UserPermission{UserID: user.ID, Codename: codename}
		if _, err := db.NewInsert().Model(perm).Exec(ctx); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return user, nil
}
