// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

// UpdateUserRequest patches the caller's own record. Nil fields are left
// untouched; a password change needs both passwords.
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name,omitempty"   validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name,omitempty"    validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email,omitempty"        validate:"omitempty,email,max=255"`
	Phone       *string `json:"phone,omitempty"        validate:"omitempty,max=32"`
	NewPassword *string `json:"new_password,omitempty" validate:"omitempty,min=8,max=72"`
	OldPassword *string `json:"old_password,omitempty" validate:"omitempty,max=128"`
}

func (r UpdateUserRequest) passwordPairComplete() bool {
	return (r.NewPassword == nil) == (r.OldPassword == nil)
}

type UserResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

type CountByRole struct {
	Role  string `db:"role"  json:"role"`
	Count int    `db:"count" json:"count"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
