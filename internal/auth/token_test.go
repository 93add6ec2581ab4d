package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-site/meridian/internal/auth"
	_ "github.com/meridian-site/meridian/testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)
	sess := &auth.Session{
		SubjectID: "user-1",
		Role:      auth.RoleAdmin,
		Name:      "Ada",
		Email:     "ada@test.local",
		Image:     "https://img.test/ada.png",
	}

	raw, err := tm.Issue(sess)
	require.NoError(t, err)

	claims, err := tm.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, sess, claims.Session())
}

func TestTokenExpired(t *testing.T) {
	tm := auth.NewTokenManager("secret", -time.Minute)
	raw, err := tm.Issue(&auth.Session{SubjectID: "user-1", Role: auth.RoleUser})
	require.NoError(t, err)

	_, err = tm.Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	raw, err := auth.NewTokenManager("secret-a", time.Hour).Issue(&auth.Session{SubjectID: "user-1"})
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSessionView(t *testing.T) {
	var anon *auth.Session
	assert.Nil(t, anon.View())

	v := (&auth.Session{SubjectID: "user-1", Role: auth.RoleAdmin, Name: "Ada", Email: "ada@test.local"}).View()
	require.NotNil(t, v)
	assert.True(t, v.IsAdmin())
	assert.Equal(t, "Ada", v.Name)
	assert.Equal(t, auth.RoleAdmin, v.Role)

	assert.False(t, (&auth.Session{SubjectID: "user-2", Role: auth.RoleUser}).View().IsAdmin())
}

func TestTokenGarbage(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := tm.Parse(raw)
		assert.ErrorIs(t, err, auth.ErrInvalidToken, "input %q", raw)
	}
}
