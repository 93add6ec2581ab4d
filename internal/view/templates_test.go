package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderAdminSession(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/dashboard.html", TemplateData{
		Title:       "Dashboard",
		Session:     &Session{Name: "Ada Lovelace", Email: "ada@example.com", Role: "ADMIN", Admin: true},
		CurrentPath: "/dashboard",
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, `href="/users"`, "Admin navigation should be visible")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestRenderAnonymousSession(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/home.html", TemplateData{
		Title:       "Home",
		CurrentPath: "/",
		Data:        map[string]any{"Posts": nil},
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, `href="/auth/signin"`)
	assert.NotContains(t, body, `href="/dashboard"`)
}
