package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Querier runs read-only queries against the structured-content store.
type Querier interface {
	Query(ctx context.Context, query string, params map[string]string, result any) error
}

// Client queries the hosted content API over its CDN endpoint.
type Client struct {
	baseURL    string
	dataset    string
	apiVersion string
	httpClient *http.Client
}

// NewClient constructs a client. An empty baseOverride targets the project's
// CDN endpoint.
func NewClient(projectID, dataset, apiVersion, baseOverride string) *Client {
	base := baseOverride
	if base == "" {
		base = fmt.Sprintf("https://%s.apicdn.sanity.io", projectID)
	}
	return &Client{
		baseURL:    base,
		dataset:    dataset,
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Query executes a GROQ query and decodes the result envelope into result.
// String params are exposed to the query as $name.
func (c *Client) Query(ctx context.Context, query string, params map[string]string, result any) error {
	endpoint := fmt.Sprintf("%s/v%s/data/query/%s", c.baseURL, c.apiVersion, c.dataset)

	q := url.Values{}
	q.Set("query", query)
	for name, value := range params {
		// The content API expects JSON-encoded parameter values.
		q.Set("$"+name, strconv.Quote(value))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("content: query failed with status %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("content: decode envelope: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return ErrNotFound
	}
	return json.Unmarshal(envelope.Result, result)
}
