package auth

// LoginPayload is the login form. Next may come from the form or the query.
type LoginPayload struct {
	Username string `json:"username" form:"username" mod:"trim" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"next" form:"next"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	Email       *string  `json:"email,omitempty"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	IsStaff     bool     `json:"is_staff"`
	IsSuperuser bool     `json:"is_superuser"`
	RoleName    *string  `json:"role_name"`
	Permissions []string `json:"permissions"`
}
