// Package welcome syncs newly signed-up users into the external mailing list's
// welcome segment and stamps the write-once welcomed timestamp.
package welcome

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps the mailing-list HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// UpsertSubscriber creates or updates a subscriber. A 409 means the subscriber
// already exists and counts as success.
func (c *Client) UpsertSubscriber(ctx context.Context, email, name string) error {
	payload := map[string]any{"email": email}
	if name != "" {
		payload["fields"] = map[string]string{"name": name}
	}
	return c.post(ctx, c.baseURL+"/subscribers", payload, http.StatusConflict)
}

// AddToGroup tags the subscriber into the group. 409 and 422 mean already a
// member and count as success.
func (c *Client) AddToGroup(ctx context.Context, email, groupID string) error {
	url := fmt.Sprintf("%s/groups/%s/subscribers", c.baseURL, groupID)
	return c.post(ctx, url, map[string]any{"email": email}, http.StatusConflict, http.StatusUnprocessableEntity)
}

func (c *Client) post(ctx context.Context, url string, payload any, tolerated ...int) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 400 {
		return nil
	}
	for _, status := range tolerated {
		if resp.StatusCode == status {
			return nil
		}
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("welcome: %s returned status %d: %s", url, resp.StatusCode, detail)
}
