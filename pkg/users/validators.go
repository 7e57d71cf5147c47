package users

// CreateUserPayload represents the request body for creating a user.
type CreateUserPayload struct {
	Username    string  `json:"username" form:"username" mod:"trim" validate:"required,max=150"`
	Email       *string `json:"email" form:"email" mod:"trim" validate:"omitempty,email"`
	Password    string  `json:"password" form:"password" validate:"required,min=8"`
	FirstName   string  `json:"first_name" form:"first_name" mod:"trim" validate:"max=150"`
	LastName    string  `json:"last_name" form:"last_name" mod:"trim" validate:"max=150"`
	IsStaff     bool    `json:"is_staff" form:"is_staff"`
	IsSuperuser bool    `json:"is_superuser" form:"is_superuser"`
	Role        *string `json:"role" form:"role" mod:"trim"`
}

// UpdateUserPayload represents the request body for updating a user.
type UpdateUserPayload struct {
	Email     *string `json:"email" form:"email" mod:"trim" validate:"omitempty,email"`
	FirstName *string `json:"first_name" form:"first_name" mod:"trim" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" form:"last_name" mod:"trim" validate:"omitempty,max=150"`
	IsStaff   *bool   `json:"is_staff" form:"is_staff"`
	IsActive  *bool   `json:"is_active" form:"is_active"`
	// Role assigns the named role; an empty string clears it.
	Role *string `json:"role" form:"role" mod:"trim"`
}

// PermissionPayload names one permission codename.
type PermissionPayload struct {
	Codename string `query:"codename" json:"codename" form:"codename" mod:"trim" validate:"required,permission"`
}

// ResetPasswordPayload represents the request body for resetting a password.
type ResetPasswordPayload struct {
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=8"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Page string `query:"page" json:"page" mod:"trim"`
}
