package models

import "time"

const (
	RoleAdmin    = 1
	RoleCustomer = 2
)

type User struct {
	ID        int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	RoleID    int       `json:"role_id"`
	CreatedAt time.Time `json:"create_at"`
}

// Sanitized returns a copy without the password.
func (u *User) Sanitized() *User {
	c := *u
	c.Password = ""
	return &c
}

// LoginRequest accepts either a JSON body or form fields.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type LoginUser struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	RoleID   int    `json:"role_id"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Role    string    `json:"role"`
	User    LoginUser `json:"user"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Registration is a sign-up record kept by the registration store.
type Registration struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Password  string    `json:"password,omitempty"`
	Address   string    `json:"address"`
	RoleID    int       `json:"role_id"`
	CreatedAt time.Time `json:"create_at"`
}
