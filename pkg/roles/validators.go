package roles

type ListRolesQuery struct {
	Page string `query:"page" json:"page" mod:"trim"`
}

// CreateRolePayload grants a set of permission codenames to a new role.
type CreateRolePayload struct {
	Name        string   `json:"name" form:"name" mod:"trim" validate:"required,max=50"`
	Permissions []string `json:"permissions" form:"permissions" validate:"dive,permission"`
}

// UpdateRolePayload replaces the permissions when they're provided.
type UpdateRolePayload struct {
	Name        *string   `json:"name" form:"name" mod:"trim" validate:"omitempty,max=50"`
	Permissions *[]string `json:"permissions" form:"permissions" validate:"omitempty,dive,permission"`
}
