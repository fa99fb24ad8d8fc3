// Package render turns decoded search results into display fragments.
package render

import (
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/ca-srg/minisearch/internal/search"
)

// View selects which result area the client shows
type View string

const (
	ViewNoResults View = "no_results"
	ViewSingle    View = "single"
	ViewMultiple  View = "multiple"
)

// LineBreak joins rendered lines of a multiple-results body.
const LineBreak = "<br>"

// Line is one rendered entry of a multiple-results body
type Line struct {
	Kind search.EntryKind
	HTML template.HTML
}

// DisplayState is everything the client needs to show a result.
// Text is plain, unescaped text; Lines hold already-escaped markup.
type DisplayState struct {
	View  View
	Text  string
	Link  string
	Lines []Line
}

// Render maps a result to its display state. It is pure and never fails.
func Render(result *search.SearchResult) DisplayState {
	if result == nil {
		return DisplayState{View: ViewNoResults}
	}

	switch result.Kind {
	case search.KindNoMatches:
		return DisplayState{View: ViewNoResults}
	case search.KindMultipleResults:
		entries := result.Entries
		if entries == nil {
			entries = search.ParseEntries(result.Text)
		}
		lines := make([]Line, 0, len(entries))
		for _, entry := range entries {
			lines = append(lines, Line{Kind: entry.Kind, HTML: renderEntry(entry)})
		}
		return DisplayState{View: ViewMultiple, Lines: lines}
	default:
		return DisplayState{View: ViewSingle, Text: result.Text, Link: result.URL}
	}
}

// HTML returns the markup for the state's result area.
func (s DisplayState) HTML() template.HTML {
	switch s.View {
	case ViewMultiple:
		parts := make([]string, 0, len(s.Lines))
		for _, line := range s.Lines {
			parts = append(parts, string(line.HTML))
		}
		return template.HTML(strings.Join(parts, LineBreak))
	case ViewSingle:
		out := html.EscapeString(s.Text)
		if s.Link != "" {
			out += LineBreak + anchor(s.Link)
		}
		return template.HTML(out)
	default:
		return ""
	}
}

// LinkHTML returns the anchor for a single result's link, or nothing.
func (s DisplayState) LinkHTML() template.HTML {
	if s.Link == "" {
		return ""
	}
	return template.HTML(anchor(s.Link))
}

func renderEntry(entry search.ResultEntry) template.HTML {
	switch entry.Kind {
	case search.EntrySolution:
		return template.HTML(html.EscapeString(entry.Label) + anchor(entry.URL))
	case search.EntryMatchScore:
		return template.HTML("<strong>" + html.EscapeString(entry.Text) + "</strong>")
	case search.EntryLineRef:
		return template.HTML("<em>" + html.EscapeString(entry.Text) + "</em>")
	default:
		return template.HTML(html.EscapeString(entry.Text))
	}
}

// anchor links href when it is an absolute http(s) URL. Anything else,
// including javascript: and data: URLs, is returned as escaped text.
func anchor(href string) string {
	escaped := html.EscapeString(href)
	if !Linkable(href) {
		return escaped
	}
	return `<a href="` + escaped + `" target="_blank" rel="noopener noreferrer">` + escaped + `</a>`
}

// Linkable reports whether raw is an absolute http or https URL with a host.
func Linkable(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
