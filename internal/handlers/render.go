package handlers

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/anonto42/litreview/internal/middleware"
	"github.com/anonto42/litreview/pkg/markdown"
)

const layoutFile = "layout.html"

// URLResolver maps a stored media path to its public URL.
type URLResolver interface {
	URL(rel string) string
}

// TemplateRenderer renders pages made of the shared layout and one page template.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// NewTemplateRenderer parses every page template in fsys against layout.html.
func NewTemplateRenderer(fsys fs.FS, md markdown.Renderer, media URLResolver) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"markdown": md.Render,
		"media":    media.URL,
		"stars":    stars,
		"date": func(t time.Time) string {
			return t.Format("15:04, 2 Jan 2006")
		},
	}

	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		t, err := template.New(path.Base(name)).Funcs(funcs).ParseFS(fsys, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &TemplateRenderer{pages: pages}, nil
}

// Render implements echo.Renderer.
func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// stars yields one entry per star slot, true when filled.
func stars(rating int) []bool {
	out := make([]bool, 5)
	for i := range out {
		out[i] = i < rating
	}
	return out
}

// page renders a full page with the values every template expects.
func page(c echo.Context, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = popFlashes(c)
	data["CSRF"], _ = c.Get(echomw.DefaultCSRFConfig.ContextKey).(string)
	return c.Render(http.StatusOK, name, data)
}
