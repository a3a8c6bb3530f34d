// internal/app/features/users/types.go
package users

// CreateRequest is the payload for creating a user.
type CreateRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Password    string `json:"password"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser *bool  `json:"is_superuser"`
}

// UpdateRequest is the payload for partially updating a user.
// Only non-nil fields are applied.
type UpdateRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	FullName    *string `json:"full_name"`
	Password    *string `json:"password"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// CountResponse is the payload for the total user count endpoint.
type CountResponse struct {
	TotalUsers int64 `json:"total_users"`
}
