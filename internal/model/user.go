package model

import "time"

// Role distinguishes candidates from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminUserRecord is a registered account.
type AdminUserRecord struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	IsBlocked bool       `json:"isBlocked"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Credential is the password hash of an account, kept outside the users
// collection so that listing users never exposes it.
type Credential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// AuthSession is the session snapshot handed to a client after login.
type AuthSession struct {
	Token string          `json:"authToken"`
	User  AdminUserRecord `json:"authUser"`
}

// LoginRequest is the payload for password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// RegisterRequest is the payload for self-registration of a candidate.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}
