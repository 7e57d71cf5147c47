package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Permission codenames.
const (
	PermissionCanMarkReturned     = "catalog.can_mark_returned"
	PermissionStaffMemberRequired = "catalog.staff_member_required"
)

// PermissionCodenames contains every permission the catalog knows about.
var PermissionCodenames = []string{
	PermissionCanMarkReturned,
	PermissionStaffMemberRequired,
}

var permissionNames = map[string]string{
	PermissionCanMarkReturned:     "Set book as returned",
	PermissionStaffMemberRequired: "Can view information for librarians",
}

// PermissionName returns the human readable name of a codename.
func PermissionName(codename string) string {
	return permissionNames[codename]
}

// IsValidPermission reports whether codename is a known permission.
func IsValidPermission(codename string) bool {
	_, ok := permissionNames[codename]
	return ok
}

// Predefined role names.
const (
	RoleLibrarian = "librarian"
)

type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          int               `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Name        string            `bun:",notnull" json:"name"`
	IsSystem    bool              `bun:",notnull" json:"is_system"`
	Permissions []*RolePermission `bun:"rel:has-many,join:id=role_id" json:"permissions,omitempty"`
}

type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	ID       int    `bun:",pk,nullzero" json:"id"`
	RoleID   int    `bun:",notnull" json:"role_id"`
	Codename string `bun:",notnull" json:"codename"`
}

// HasPermission checks if the role has a specific permission.
func (r *Role) HasPermission(codename string) bool {
	for _, p := range r.Permissions {
		if p.Codename == codename {
			return true
		}
	}
	return false
}
