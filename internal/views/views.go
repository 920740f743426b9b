package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/medismart/medismart-backend/internal/models"
)

//go:embed templates/*.html
var files embed.FS

// Page is the data every template renders from
type Page struct {
	Phone    string
	LoggedIn bool
	Error    string
	Info     string

	Medicines []*models.Medicine
	Orders    []*models.Order
}

// Engine renders the embedded pages and satisfies fiber.Views
type Engine struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("₹%.2f", v) },
	"date":  func(t time.Time) string { return t.Format("02 Jan 2006") },
	"stamp": func(t time.Time) string { return t.Format("02 Jan 2006 15:04") },
}

// New creates an engine; templates are parsed by Load
func New() *Engine {
	return &Engine{pages: make(map[string]*template.Template)}
}

// Load parses every page together with the shared layout
func (e *Engine) Load() error {
	for _, name := range []string{"login", "dashboard", "error"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		e.pages[name] = tmpl
	}
	return nil
}

// Render executes the named page into out
func (e *Engine) Render(out io.Writer, name string, binding interface{}, _ ...string) error {
	tmpl, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(out, "layout", binding)
}
