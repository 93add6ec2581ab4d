package content

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-site/meridian/internal/auth"
	"github.com/meridian-site/meridian/internal/view"
)

// Handler renders the public content pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine) *Handler {
	return &Handler{logger: logger, service: service, templates: templates}
}

// MountRoutes registers the public content routes. The /projects section is
// gated upstream; everything else is public.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/post/{slug}", h.post)
	r.Get("/projects", h.projects)
	r.Get("/projects/{slug}", h.project)
	r.Get("/author/{slug}", h.author)
	r.Get("/search", h.search)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.RecentPosts(r.Context())
	if err != nil {
		h.renderError(w, r, "load posts", err)
		return
	}
	h.render(w, r, "pages/home.html", "Meridian", map[string]any{"Posts": posts})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.service.PostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderError(w, r, "load post", err)
		return
	}
	h.render(w, r, "pages/post.html", post.Title, map[string]any{"Post": post, "Slug": slug})
}

func (h *Handler) projects(w http.ResponseWriter, r *http.Request) {
	studies, err := h.service.CaseStudies(r.Context())
	if err != nil {
		h.renderError(w, r, "load case studies", err)
		return
	}
	h.render(w, r, "pages/projects.html", "Case Studies", map[string]any{"CaseStudies": studies})
}

func (h *Handler) project(w http.ResponseWriter, r *http.Request) {
	study, err := h.service.CaseStudyBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderError(w, r, "load case study", err)
		return
	}
	h.render(w, r, "pages/project.html", study.Title, map[string]any{"CaseStudy": study})
}

func (h *Handler) author(w http.ResponseWriter, r *http.Request) {
	author, err := h.service.AuthorBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderError(w, r, "load author", err)
		return
	}
	h.render(w, r, "pages/author.html", author.Name, map[string]any{"Author": author})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	result, err := h.service.Search(r.Context(), term)
	if err != nil {
		h.renderError(w, r, "search", err)
		return
	}
	h.render(w, r, "pages/search.html", "Search", map[string]any{
		"Query":  term,
		"Result": result,
		"Total":  len(result.Posts) + len(result.CaseStudies),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any) {
	viewData := view.TemplateData{
		Title:       title,
		Session:     auth.SessionFromContext(r.Context()).View(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.Error(action, slog.Any("error", err), slog.String("path", r.URL.Path))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
