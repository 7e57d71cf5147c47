package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",notnull" json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `bun:",notnull" json:"-"` // Never expose password hash
	FirstName    string    `bun:",notnull" json:"first_name"`
	LastName     string    `bun:",notnull" json:"last_name"`
	IsStaff      bool      `bun:",notnull" json:"is_staff"`
	IsSuperuser  bool      `bun:",notnull" json:"is_superuser"`
	IsActive     bool      `bun:",notnull" json:"is_active"`
	RoleID       *int      `json:"role_id"`

	// Relations
	Role        *Role             `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	Permissions []*UserPermission `bun:"rel:has-many,join:id=user_id" json:"permissions,omitempty"`
}

func (u *User) String() string {
	return u.Username
}

// HasPermission reports whether the user holds the given permission codename,
// either directly or through their role. Active superusers hold everything.
func (u *User) HasPermission(codename string) bool {
	if !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p.Codename == codename {
			return true
		}
	}
	if u.Role != nil {
		return u.Role.HasPermission(codename)
	}
	return false
}

// AllPermissions returns the deduplicated set of codenames the user holds.
func (u *User) AllPermissions() []string {
	if u.IsSuperuser {
		return append([]string(nil), PermissionCodenames...)
	}
	seen := map[string]bool{}
	perms := []string{}
	add := func(codename string) {
		if !seen[codename] {
			seen[codename] = true
			perms = append(perms, codename)
		}
	}
	for _, p := range u.Permissions {
		add(p.Codename)
	}
	if u.Role != nil {
		for _, p := range u.Role.Permissions {
			add(p.Codename)
		}
	}
	return perms
}

type UserPermission struct {
	bun.BaseModel `bun:"table:user_permissions,alias:up"`

	ID       int    `bun:",pk,nullzero" json:"id"`
	UserID   int    `bun:",notnull" json:"user_id"`
	Codename string `bun:",notnull" json:"codename"`
}
