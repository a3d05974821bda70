// Package web holds the HTML templates and static assets of the quoting pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed templates/*.html static/*
var files embed.FS

var funcs = template.FuncMap{
	"contains": func(list []string, v string) bool {
		for _, item := range list {
			if item == v {
				return true
			}
		}
		return false
	},
}

// Pages is a set of parsed page templates, each combined with the shared layout.
type Pages struct {
	pages map[string]*template.Template
}

// Load parses every page under templates/ together with layout.html.
func Load() (*Pages, error) {
	entries, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	p := &Pages{pages: make(map[string]*template.Template, len(entries))}
	for _, path := range entries {
		name := strings.TrimPrefix(path, "templates/")
		if name == "layout.html" {
			continue
		}
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", path)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.pages[name] = tpl
	}
	return p, nil
}

// Render writes page to w.
func (p *Pages) Render(w io.Writer, page string, data any) error {
	tpl, ok := p.pages[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}
	return tpl.ExecuteTemplate(w, "layout.html", data)
}

// Static serves the embedded static assets.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
