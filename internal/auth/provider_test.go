package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-site/meridian/internal/auth"
	_ "github.com/meridian-site/meridian/testing"
)

func TestGoogleProviderExchange(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"sub":"google-1","email":"ada@test.local","name":"Ada","picture":"https://img.test/a.png"}`))
	}))
	defer userinfo.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "code-1", r.FormValue("code"))
		_, _ = w.Write([]byte(`{"access_token":"access-1"}`))
	}))
	defer token.Close()

	provider := auth.NewGoogleProvider("client", "secret", "http://localhost/cb").
		WithEndpoints("http://auth.test", token.URL, userinfo.URL)

	identity, err := provider.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "google-1", identity.Subject)
	assert.Equal(t, "ada@test.local", identity.Email)
}

func TestGoogleProviderExchangeRejected(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer token.Close()

	provider := auth.NewGoogleProvider("client", "secret", "http://localhost/cb").
		WithEndpoints("http://auth.test", token.URL, "http://userinfo.test")

	_, err := provider.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestGoogleProviderAuthCodeURL(t *testing.T) {
	provider := auth.NewGoogleProvider("client-1", "secret", "http://localhost/cb")
	u := provider.AuthCodeURL("state-1")
	assert.Contains(t, u, "https://accounts.google.com/o/oauth2/v2/auth?")
	assert.Contains(t, u, "client_id=client-1")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "scope=openid+email+profile")
}
