package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-site/meridian/internal/auth"
	"github.com/meridian-site/meridian/internal/view"
	_ "github.com/meridian-site/meridian/testing"
)

type stubProvider struct {
	identity auth.Identity
	err      error
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.test/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (auth.Identity, error) {
	return p.identity, p.err
}

func newAuthRouter(t *testing.T, repo auth.Repository, provider auth.Provider) (chi.Router, *auth.TokenManager) {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo, nil, nil), provider, tokens, templates, false)
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r, tokens
}

func stateCookieFrom(t *testing.T, res *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == "meridian_oauth_state" {
			return c
		}
	}
	t.Fatal("state cookie not set")
	return nil
}

func TestSignInPage(t *testing.T) {
	router, _ := newAuthRouter(t, newMemoryRepo(), &stubProvider{})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/auth/signin", nil))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Continue with Google")
}

func TestStartGoogleSetsStateAndRedirects(t *testing.T) {
	router, _ := newAuthRouter(t, newMemoryRepo(), &stubProvider{})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/auth/google?callbackUrl=%2Fprojects%3Fpage%3D2", nil))

	require.Equal(t, http.StatusFound, res.Code)
	cookie := stateCookieFrom(t, res)
	nonce, rawCallback, found := strings.Cut(cookie.Value, "|")
	require.True(t, found)
	assert.NotEmpty(t, nonce)
	callback, err := url.QueryUnescape(rawCallback)
	require.NoError(t, err)
	assert.Equal(t, "/projects?page=2", callback)
	assert.Contains(t, res.Header().Get("Location"), "state="+nonce)
}

func TestCallbackIssuesSessionAndResumes(t *testing.T) {
	provider := &stubProvider{identity: auth.Identity{Subject: "google-1", Email: "ada@test.local", Name: "Ada"}}
	router, tokens := newAuthRouter(t, newMemoryRepo(), provider)

	start := httptest.NewRecorder()
	router.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/auth/google?callbackUrl=%2Fprojects", nil))
	state := stateCookieFrom(t, start)
	nonce, _, _ := strings.Cut(state.Value, "|")

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+nonce, nil)
	req.AddCookie(state)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/projects", res.Header().Get("Location"))

	var sessionValue string
	for _, c := range res.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			sessionValue = c.Value
		}
	}
	require.NotEmpty(t, sessionValue)
	claims, err := tokens.Parse(sessionValue)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, claims.Role)
	assert.Equal(t, "ada@test.local", claims.Email)
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	router, _ := newAuthRouter(t, newMemoryRepo(), &stubProvider{})

	start := httptest.NewRecorder()
	router.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	state := stateCookieFrom(t, start)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
	req.AddCookie(state)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/auth/signin?error=StateMismatch", res.Header().Get("Location"))
}

func TestCallbackDeniedUserRedirectsWithError(t *testing.T) {
	repo := newMemoryRepo(&auth.User{ID: "user-1", GoogleSub: "google-1", Email: "ada@test.local", IsActive: false})
	provider := &stubProvider{identity: auth.Identity{Subject: "google-1", Email: "ada@test.local"}}
	router, _ := newAuthRouter(t, repo, provider)

	start := httptest.NewRecorder()
	router.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	state := stateCookieFrom(t, start)
	nonce, _, _ := strings.Cut(state.Value, "|")

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+nonce, nil)
	req.AddCookie(state)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/auth/signin?error=AccessDenied", res.Header().Get("Location"))
	for _, c := range res.Result().Cookies() {
		assert.NotEqual(t, auth.SessionCookie, c.Name, "denied sign-in must not set a session cookie")
	}
}

func TestCallbackExchangeFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("provider down")}
	router, _ := newAuthRouter(t, newMemoryRepo(), provider)

	start := httptest.NewRecorder()
	router.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	state := stateCookieFrom(t, start)
	nonce, _, _ := strings.Cut(state.Value, "|")

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+nonce, nil)
	req.AddCookie(state)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/auth/signin?error=AccessDenied", res.Header().Get("Location"))
}

func TestSignOutClearsCookie(t *testing.T) {
	router, _ := newAuthRouter(t, newMemoryRepo(), &stubProvider{})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/auth/signout", nil))

	require.Equal(t, http.StatusSeeOther, res.Code)
	var cleared bool
	for _, c := range res.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			cleared = c.MaxAge < 0 && c.Value == ""
		}
	}
	assert.True(t, cleared, "session cookie should be expired")
}
