package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Service handles user accounts and their permissions.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateUserOptions contains options for creating a user.
type CreateUserOptions struct {
	Username    string
	Email       *string
	Password    string
	FirstName   string
	LastName    string
	IsStaff     bool
	IsSuperuser bool
	// RoleName assigns an existing role, looked up case-insensitively.
	RoleName *string
}

// Create creates a new active user.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     opts.Username,
		Email:        opts.Email,
		PasswordHash: hashedPassword,
		FirstName:    opts.FirstName,
		LastName:     opts.LastName,
		IsStaff:      opts.IsStaff,
		IsSuperuser:  opts.IsSuperuser,
		IsActive:     true,
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("username = ? COLLATE NOCASE", opts.Username).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if exists {
			return errcodes.FieldError("username", "A user with that username already exists.")
		}

		if opts.RoleName != nil {
			roleID, err := roleIDByName(ctx, tx, *opts.RoleName)
			if err != nil {
				return err
			}
			user.RoleID = &roleID
		}

		_, err = tx.NewInsert().Model(user).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return s.Retrieve(ctx, RetrieveUserOptions{ID: &user.ID})
}

// RetrieveUserOptions selects a user by ID or username.
type RetrieveUserOptions struct {
	ID       *int
	Username *string
}

// Retrieve gets a user along with its role and direct permissions.
func (s *Service) Retrieve(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}
	q := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Relation("Permissions")

	if opts.ID != nil {
		q = q.Where("u.id = ?", *opts.ID)
	}
	if opts.Username != nil {
		q = q.Where("u.username = ? COLLATE NOCASE", *opts.Username)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// ListOptions contains options for listing users.
type ListOptions struct {
	Limit  *int
	Offset *int
}

// List returns a page of users ordered by username.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.User, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Relation("Role").
		Order("u.username ASC")

	if opts.Limit != nil {
		query = query.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		query = query.Offset(*opts.Offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return users, nil
}

// CountUsers returns the total number of users.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// UpdateOptions contains options for updating a user.
type UpdateOptions struct {
	Columns []string
}

// Update writes the given columns of user.
func (s *Service) Update(ctx context.Context, user *models.User, opts UpdateOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}
	user.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	res, err := s.db.NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}

// AssignRole puts the user in the named role, or clears the role when
// roleName is nil.
func (s *Service) AssignRole(ctx context.Context, userID int, roleName *string) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var roleID *int
		if roleName != nil {
			id, err := roleIDByName(ctx, tx, *roleName)
			if err != nil {
				return err
			}
			roleID = &id
		}

		res, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("role_id = ?", roleID).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("User")
		}
		return nil
	})
}

// GrantPermission gives the user codename directly. Granting a permission
// the user already holds directly is a no-op.
func (s *Service) GrantPermission(ctx context.Context, userID int, codename string) error {
	if !models.IsValidPermission(codename) {
		return errcodes.FieldError("codename", "Unknown permission \""+codename+"\".")
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkUserExists(ctx, tx, userID); err != nil {
			return err
		}

		exists, err := tx.NewSelect().
			Model((*models.UserPermission)(nil)).
			Where("user_id = ?", userID).
			Where("codename = ?", codename).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if exists {
			return nil
		}

		_, err = tx.NewInsert().
			Model(&models.UserPermission{UserID: userID, Codename: codename}).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// RevokePermission removes a direct grant. Permissions held through the
// user's role are untouched.
func (s *Service) RevokePermission(ctx context.Context, userID int, codename string) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkUserExists(ctx, tx, userID); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.UserPermission)(nil)).
			Where("user_id = ?", userID).
			Where("codename = ?", codename).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// ResetPassword changes a user's password.
func (s *Service) ResetPassword(ctx context.Context, userID int, newPassword string) error {
	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	res, err := s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hashedPassword).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}

func roleIDByName(ctx context.Context, tx bun.Tx, name string) (int, error) {
	role := &models.Role{}
	err := tx.NewSelect().
		Model(role).
		Column("id").
		Where("name = ? COLLATE NOCASE", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errcodes.FieldError("role", "Select a valid choice. "+name+" is not one of the available choices.")
		}
		return 0, errors.WithStack(err)
	}
	return role.ID, nil
}

func checkUserExists(ctx context.Context, tx bun.Tx, userID int) error {
	exists, err := tx.NewSelect().Model((*models.User)(nil)).Where("id = ?", userID).Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.NotFound("User")
	}
	return nil
}
