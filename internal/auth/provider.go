package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is the narrow interface to the external identity provider. The
// provider's internals (token formats, consent screens) stay on its side of
// this boundary.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// GoogleProvider implements Provider against Google's OAuth 2.0 endpoints.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string

	authURL     string
	tokenURL    string
	userinfoURL string

	httpClient *http.Client
}

// NewGoogleProvider constructs a GoogleProvider.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		authURL:      "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:     "https://oauth2.googleapis.com/token",
		userinfoURL:  "https://openidconnect.googleapis.com/v1/userinfo",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithEndpoints overrides the provider endpoints. Used by tests.
func (p *GoogleProvider) WithEndpoints(authURL, tokenURL, userinfoURL string) *GoogleProvider {
	p.authURL = authURL
	p.tokenURL = tokenURL
	p.userinfoURL = userinfoURL
	return p
}

// AuthCodeURL builds the consent-screen redirect for the given state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return p.authURL + "?" + q.Encode()
}

// Exchange swaps an authorization code for the signed-in user's profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", p.redirectURL)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("auth: token exchange failed with status %d: %s", resp.StatusCode, body)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return Identity{}, fmt.Errorf("auth: decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return Identity{}, fmt.Errorf("auth: token exchange returned no access token")
	}

	return p.fetchProfile(ctx, tokenResp.AccessToken)
}

func (p *GoogleProvider) fetchProfile(ctx context.Context, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return Identity{}, fmt.Errorf("auth: userinfo failed with status %d", resp.StatusCode)
	}

	var profile struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Identity{}, fmt.Errorf("auth: decode userinfo: %w", err)
	}
	if profile.Sub == "" {
		return Identity{}, fmt.Errorf("auth: userinfo returned no subject")
	}

	return Identity{
		Subject: profile.Sub,
		Email:   profile.Email,
		Name:    profile.Name,
		Picture: profile.Picture,
	}, nil
}
