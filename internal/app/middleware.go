package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/meridian-site/meridian/internal/auth"
)

// RoleSource re-derives the authoritative role for a subject. Used when a
// token predates the role claim, so the claim is never invented client-side.
type RoleSource interface {
	RoleFor(ctx context.Context, subjectID string) string
}

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger *slog.Logger
	Config *Config
	Tokens *auth.TokenManager
	Roles  RoleSource
}

// MiddlewareStack installs the Meridian middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' https:",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		sessionMiddleware(cfg),
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// sessionMiddleware resolves the session cookie into a context session. Any
// verification failure leaves the context without a session, so downstream
// access decisions fail closed instead of trusting a damaged token.
func sessionMiddleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := cfg.Tokens.Parse(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sess := claims.Session()
			if sess.Role == "" && cfg.Roles != nil {
				sess.Role = cfg.Roles.RoleFor(r.Context(), sess.SubjectID)
			}
			refreshSession(w, cfg, claims, sess)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), sess)))
		})
	}
}

// refreshSession reissues the cookie once a token has passed half its
// lifetime, keeping active visitors signed in without unbounded expiry.
func refreshSession(w http.ResponseWriter, cfg MiddlewareConfig, claims *auth.Claims, sess *auth.Session) {
	if claims.ExpiresAt == nil {
		return
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 || remaining > cfg.Tokens.TTL()/2 {
		return
	}
	token, err := cfg.Tokens.Issue(sess)
	if err != nil {
		cfg.Logger.Warn("reissue session token", slog.Any("error", err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.Tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   cfg.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
