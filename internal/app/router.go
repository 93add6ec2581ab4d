package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-site/meridian/internal/auth"
	"github.com/meridian-site/meridian/internal/content"
	"github.com/meridian-site/meridian/internal/directory"
	"github.com/meridian-site/meridian/internal/gate"
	"github.com/meridian-site/meridian/jobs"
	"github.com/meridian-site/meridian/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Tokens           *auth.TokenManager
	Roles            RoleSource
	AuthHandler      *auth.Handler
	ContentHandler   *content.Handler
	DirectoryHandler *directory.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
		Tokens: params.Tokens,
		Roles:  params.Roles,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(gate.Middleware(params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.ContentHandler.MountRoutes(r)
	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Get("/dashboard", params.DirectoryHandler.DashboardPage)
	r.Get("/users", params.DirectoryHandler.UsersPage)
	r.Route("/api/admin", params.DirectoryHandler.MountAPI)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
