package content_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-site/meridian/internal/content"
	_ "github.com/meridian-site/meridian/testing"
)

func TestClientQueryDecodesResultEnvelope(t *testing.T) {
	var gotPath, gotQuery, gotSlug string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotSlug = r.URL.Query().Get("$slug")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"title":"Hello","publishedDate":"2025-08-01"}}`))
	}))
	defer server.Close()

	client := content.NewClient("proj", "production", "2025-08-08", server.URL)
	var post content.Post
	err := client.Query(context.Background(), `*[slug.current == $slug][0]`, map[string]string{"slug": "hello"}, &post)
	require.NoError(t, err)

	assert.Equal(t, "/v2025-08-08/data/query/production", gotPath)
	assert.Equal(t, `*[slug.current == $slug][0]`, gotQuery)
	assert.Equal(t, `"hello"`, gotSlug, "params are JSON-encoded")
	assert.Equal(t, "Hello", post.Title)
}

func TestClientQueryNullResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":null}`))
	}))
	defer server.Close()

	client := content.NewClient("proj", "production", "2025-08-08", server.URL)
	var post content.Post
	err := client.Query(context.Background(), `*[_type == "post"][0]`, nil, &post)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestClientQueryErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer server.Close()

	client := content.NewClient("proj", "production", "2025-08-08", server.URL)
	var out []content.PostSummary
	err := client.Query(context.Background(), "*", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
