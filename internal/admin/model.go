package admin

import "time"

const RoleAdmin = "admin"

// Identity is one row of the pre-authorized allow-list. The list is static
// from the application's point of view; nothing in the normal flow writes it.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type User struct {
	ID           string    `json:"id"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest payload for admin registration.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Firstname string `json:"firstname" example:"Ada"`
	Lastname  string `json:"lastname"  example:"Obi"`
	Email     string `json:"email"     example:"ada@store.example"`
	Password  string `json:"password"`
}

// LoginRequest payload for admin login.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
