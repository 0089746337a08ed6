package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a staff account. PasswordHash is a bcrypt hash and is never serialised.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewUserInput carries a plaintext password that is hashed before storage.
type NewUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	FullName *string `json:"full_name"`
	Role     *Role   `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

// UserService provides staff account management and credential checks.
type UserService interface {
	Create(ctx context.Context, in NewUserInput) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	// Authenticate checks email and password against an active account.
	// Any mismatch returns ErrUnauthorized without saying which part was wrong.
	Authenticate(ctx context.Context, email, password string) (*User, error)
}
