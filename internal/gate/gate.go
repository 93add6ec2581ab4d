// Package gate classifies inbound requests against the protected path sets
// and decides allow, redirect-to-signin, or forbidden before any handler runs.
package gate

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/meridian-site/meridian/internal/auth"
)

// Decision is the outcome of classifying a request.
type Decision int

const (
	// Allow lets the request proceed.
	Allow Decision = iota
	// RedirectToSignIn sends the caller to the sign-in page, preserving the
	// originally requested path so it resumes after sign-in.
	RedirectToSignIn
	// Forbidden denies with 403 and no redirect.
	Forbidden
)

// Protected path prefixes. Admin prefixes additionally require the ADMIN role;
// session prefixes require any valid session.
var (
	adminPrefixes   = []string{"/dashboard", "/users", "/api/admin"}
	sessionPrefixes = []string{"/projects"}
)

// Classify applies the gate rules in order: unprotected paths pass, a missing
// session redirects to sign-in, a non-admin session on an admin prefix is
// forbidden, everything else passes. Token verification failures upstream must
// present as a nil session so they fail closed into the redirect branch.
func Classify(path string, sess *auth.Session) Decision {
	switch {
	case matchesAny(adminPrefixes, path):
		if sess == nil {
			return RedirectToSignIn
		}
		if !sess.IsAdmin() {
			return Forbidden
		}
		return Allow
	case matchesAny(sessionPrefixes, path):
		if sess == nil {
			return RedirectToSignIn
		}
		return Allow
	}
	return Allow
}

// SignInURL builds the sign-in redirect carrying the original path and query
// verbatim as the resumption parameter.
func SignInURL(r *http.Request) string {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return "/auth/signin?callbackUrl=" + url.QueryEscape(target)
}

// Middleware enforces Classify for every request.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := auth.SessionFromContext(r.Context())
			switch Classify(r.URL.Path, sess) {
			case RedirectToSignIn:
				http.Redirect(w, r, SignInURL(r), http.StatusFound)
			case Forbidden:
				if logger != nil {
					logger.Warn("forbidden", slog.String("path", r.URL.Path), slog.String("subject", sess.SubjectID))
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func matchesAny(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
