package webui

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ca-srg/minisearch/internal/render"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFiles embed.FS

// TemplateManager manages HTML templates
type TemplateManager struct {
	templates *template.Template
}

// NewTemplateManager parses the embedded page and partial templates
func NewTemplateManager() (*TemplateManager, error) {
	funcMap := template.FuncMap{
		"isNoResults": func(s render.DisplayState) bool { return s.View == render.ViewNoResults },
		"isSingle":    func(s render.DisplayState) bool { return s.View == render.ViewSingle },
		"isMultiple":  func(s render.DisplayState) bool { return s.View == render.ViewMultiple },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(
		templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &TemplateManager{
		templates: tmpl,
	}, nil
}

// Render renders a template to the writer
func (tm *TemplateManager) Render(w io.Writer, name string, data any) error {
	return tm.templates.ExecuteTemplate(w, name, data)
}
