package app

import (
	"github.com/google/uuid"

	"pos-backend/internal/core"
)

// UserSession is the authenticated identity carried by a request.
type UserSession struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     core.Role `json:"role"`
}

// HasRole reports whether the session holds one of roles.
func (s *UserSession) HasRole(roles ...core.Role) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

func sessionFor(u *core.User) *UserSession {
	return &UserSession{UserID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
