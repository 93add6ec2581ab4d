// Package content is the read path against the hosted structured-content
// store. All documents are externally owned; this package only queries.
package content

import (
	"encoding/json"
	"errors"
)

// ErrNotFound indicates no document matches the requested slug.
var ErrNotFound = errors.New("content: document not found")

// PostSummary is a post list entry.
type PostSummary struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	PublishedAt string `json:"publishedDate"`
}

// Post is a fully resolved post document.
type Post struct {
	Title       string          `json:"title"`
	AuthorName  string          `json:"name"`
	AuthorSlug  string          `json:"authorSlug"`
	Categories  []string        `json:"categories"`
	PublishedAt string          `json:"publishedDate"`
	Body        json.RawMessage `json:"body"`
}

// CaseStudySummary is a case-study list entry.
type CaseStudySummary struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ClientName  string `json:"clientName"`
	PublishedAt string `json:"publishedDate"`
}

// CaseStudy is a fully resolved case-study document.
type CaseStudy struct {
	Title       string          `json:"title"`
	ClientName  string          `json:"clientName"`
	Role        string          `json:"role"`
	Disciplines []string        `json:"disciplines"`
	AuthorName  string          `json:"name"`
	AuthorSlug  string          `json:"authorSlug"`
	PublishedAt string          `json:"publishedDate"`
	Intro       json.RawMessage `json:"intro"`
	Sections    json.RawMessage `json:"sections"`
}

// Author is an author document with their posts.
type Author struct {
	ID    string          `json:"_id"`
	Name  string          `json:"name"`
	Slug  string          `json:"slug"`
	Bio   json.RawMessage `json:"bio"`
	Posts []PostSummary   `json:"posts"`
}

// SearchHit is one search result row; Type distinguishes posts from case
// studies.
type SearchHit struct {
	ID          string `json:"_id"`
	Type        string `json:"_type"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ClientName  string `json:"clientName,omitempty"`
	PublishedAt string `json:"publishedDate"`
}

// SearchResult groups hits by document type.
type SearchResult struct {
	Posts       []SearchHit `json:"posts"`
	CaseStudies []SearchHit `json:"caseStudies"`
}
