package directory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-site/meridian/internal/auth"
	"github.com/meridian-site/meridian/internal/platform/httpx"
	"github.com/meridian-site/meridian/internal/view"
)

// Handler serves the admin JSON API and the admin pages. Both sit behind the
// gate's admin check; handlers trust that decision for the current request.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine) *Handler {
	return &Handler{logger: logger, service: service, templates: templates}
}

// MountAPI registers the admin JSON API.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Put("/users/{id}", h.updateUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	result, err := h.service.List(r.Context(), ListRequest{
		Query: q.Get("query"),
		Page:  page,
		Size:  size,
	})
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var params UpdateParams
	if err := httpx.DecodeJSON(r, &params); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	actor := auth.SessionFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}

	updated, err := h.service.Update(r.Context(), actor.SubjectID, chi.URLParam(r, "id"), params)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFields), errors.Is(err, ErrInvalidRole):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrLastAdmin):
			httpx.Problem(w, http.StatusBadRequest, "Conflict", err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		default:
			h.logger.Error("update user", slog.Any("error", err), slog.String("target", chi.URLParam(r, "id")))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": updated})
}

// DashboardPage renders the admin dashboard.
func (h *Handler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "pages/dashboard.html", "Dashboard", nil)
}

// UsersPage renders the server-side user management table.
func (h *Handler) UsersPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	result, err := h.service.List(r.Context(), ListRequest{Query: q.Get("query"), Page: page, Size: size})
	if err != nil {
		h.logger.Error("users page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, "pages/users.html", "Users", map[string]any{
		"Result":   result,
		"Query":    q.Get("query"),
		"PrevPage": result.Page - 1,
		"NextPage": result.Page + 1,
		"HasNext":  result.Page*result.Size < result.Total,
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any) {
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
