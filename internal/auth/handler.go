package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-site/meridian/internal/view"
)

const stateCookie = "meridian_oauth_state"

// Handler serves the sign-in flow.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	provider      Provider
	tokens        *TokenManager
	templates     *view.Engine
	secureCookies bool
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, provider Provider, tokens *TokenManager, templates *view.Engine, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		provider:      provider,
		tokens:        tokens,
		templates:     templates,
		secureCookies: secureCookies,
	}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/signin", h.showSignIn)
	r.Get("/google", h.startGoogle)
	r.Get("/google/callback", h.callback)
	r.Post("/signout", h.signOut)
}

func (h *Handler) showSignIn(w http.ResponseWriter, r *http.Request) {
	data := view.TemplateData{
		Title:       "Sign in",
		Session:     SessionFromContext(r.Context()).View(),
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"CallbackURL": sanitizeCallback(r.URL.Query().Get("callbackUrl")),
			"Error":       r.URL.Query().Get("error"),
		},
	}
	if err := h.templates.Render(w, "pages/signin.html", data); err != nil {
		h.logger.Error("render signin", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) startGoogle(w http.ResponseWriter, r *http.Request) {
	nonce := uuid.NewString()
	callback := sanitizeCallback(r.URL.Query().Get("callbackUrl"))
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    nonce + "|" + url.QueryEscape(callback),
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(nonce), http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		h.redirectToSignIn(w, r, "AccessDenied")
		return
	}

	nonce, callback, ok := h.consumeState(w, r)
	if !ok || nonce != r.URL.Query().Get("state") {
		h.redirectToSignIn(w, r, "StateMismatch")
		return
	}

	identity, err := h.provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("provider exchange", slog.Any("error", err))
		h.redirectToSignIn(w, r, "AccessDenied")
		return
	}

	sess, allowed, err := h.service.SignIn(r.Context(), identity)
	if err != nil {
		h.logger.Error("sign in", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !allowed {
		h.redirectToSignIn(w, r, "AccessDenied")
		return
	}

	token, err := h.tokens.Issue(sess)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, h.sessionCookie(token, int(h.tokens.TTL().Seconds())))
	http.Redirect(w, r, callback, http.StatusFound)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// consumeState reads and clears the state cookie set when the dance started.
func (h *Handler) consumeState(w http.ResponseWriter, r *http.Request) (nonce, callback string, ok bool) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		return "", "", false
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true, Secure: h.secureCookies, SameSite: http.SameSiteLaxMode})

	nonce, rawCallback, found := strings.Cut(cookie.Value, "|")
	if !found || nonce == "" {
		return "", "", false
	}
	callback, err = url.QueryUnescape(rawCallback)
	if err != nil {
		callback = "/"
	}
	return nonce, sanitizeCallback(callback), true
}

func (h *Handler) redirectToSignIn(w http.ResponseWriter, r *http.Request, errCode string) {
	http.Redirect(w, r, "/auth/signin?error="+url.QueryEscape(errCode), http.StatusFound)
}

// sanitizeCallback keeps resumption targets same-origin: absolute paths only.
func sanitizeCallback(callback string) string {
	if callback == "" || !strings.HasPrefix(callback, "/") || strings.HasPrefix(callback, "//") {
		return "/"
	}
	return callback
}
