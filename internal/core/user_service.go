package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userColumns = `id, username, email, password_hash, full_name, role, is_active, last_login, created_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&u.IsActive, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validationError("password", "password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (in NewUserInput) validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return validationError("username", "username is required")
	}
	if !strings.Contains(in.Email, "@") {
		return validationError("email", "a valid email is required")
	}
	if in.Role != "" && !in.Role.Valid() {
		return validationError("role", "role must be one of admin, manager, cashier")
	}
	return nil
}

func (s *userService) Create(ctx context.Context, in NewUserInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = RoleCashier
	}

	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		strings.TrimSpace(in.Username), strings.TrimSpace(in.Email), hash, in.FullName, string(role)))
	if err != nil {
		return nil, storageError(err, "insert user")
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users, err := collectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*User, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, validationError("role", "role must be one of admin, manager, cashier")
	}
	var hash *string
	if upd.Password != nil {
		h, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}
	var role *string
	if upd.Role != nil {
		r := string(*upd.Role)
		role = &r
	}

	u, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    role = COALESCE($3, role),
		    is_active = COALESCE($4, is_active),
		    password_hash = COALESCE($5, password_hash),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, upd.FullName, role, upd.IsActive, hash))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("user", id)
		}
		return nil, storageError(err, "update user")
	}
	return u, nil
}

func (s *userService) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return storageError(err, "deactivate user")
	}
	if tag.RowsAffected() == 0 {
		return notFound("user", id)
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	invalid := newDomainError(ErrUnauthorized, "", "invalid email or password")

	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND is_active = true
	`, strings.TrimSpace(email)))
	if err != nil {
		if isNoRows(err) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}

	if _, err := s.pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, u.ID); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return u, nil
}
