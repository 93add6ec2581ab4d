package auth

import (
	"context"
	"time"

	"github.com/meridian-site/meridian/internal/view"
)

// Roles assignable to a user account.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account created from an external sign-in.
type User struct {
	ID         string
	GoogleSub  string
	Email      string
	Name       string
	Image      string
	Role       string
	IsActive   bool
	WelcomedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Identity is the profile the external identity provider returns for a sign-in.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Session is the narrow per-request view of the caller, materialised once from
// the session token. Downstream authorization checks read this and nothing else.
type Session struct {
	SubjectID string
	Role      string
	Name      string
	Email     string
	Image     string
}

// IsAdmin reports whether the session carries the ADMIN role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// View maps the session to its template-facing shape. A nil session stays nil
// so templates render the anonymous navigation.
func (s *Session) View() *view.Session {
	if s == nil {
		return nil
	}
	return &view.Session{Name: s.Name, Email: s.Email, Role: s.Role, Admin: s.IsAdmin()}
}

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context. Nil means the caller is
// unauthenticated (missing, invalid or expired token).
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
