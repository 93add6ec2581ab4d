package view

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/meridian-site/meridian/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// Session is the template-facing slice of the signed-in caller. Handlers map it
// from the request session; a nil value renders the anonymous navigation.
type Session struct {
	Name  string
	Email string
	Role  string
	Admin bool
}

// IsAdmin reports whether the caller may see admin navigation.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Admin
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	Session     *Session
	CurrentPath string
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		// Dates arrive from the content store as ISO strings.
		"formatDate": func(value string) string {
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if t, err := time.Parse(layout, value); err == nil {
					return t.Format("02 Jan 2006")
				}
			}
			return value
		},
		"plainText": PlainText,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// PlainText flattens portable-text blocks into paragraphs. Non-text blocks
// (images, embeds) are skipped.
func PlainText(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var blocks []struct {
		Type     string `json:"_type"`
		Children []struct {
			Text string `json:"text"`
		} `json:"children"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}
	paragraphs := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Type != "block" {
			continue
		}
		var text string
		for _, child := range block.Children {
			text += child.Text
		}
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
