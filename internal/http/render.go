package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/log"
)

const (
	layoutGlob = "templates/layout/*.html"
	pagesGlob  = "templates/pages/*.html"
)

// pageSet holds one template per page, each a clone of the shared layout
// with the page's blocks parsed on top.
type pageSet struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

func loadPages(fsys fs.FS) (*pageSet, error) {
	layout, err := template.New("layout").Funcs(templateFuncs).ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, fmt.Errorf("parse layout templates: %w", err)
	}
	files, err := fs.Glob(fsys, pagesGlob)
	if err != nil {
		return nil, fmt.Errorf("list page templates: %w", err)
	}

	set := &pageSet{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := t.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", file, err)
		}
		set.pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}
	return set, nil
}

func (p *pageSet) lookup(name string) (*template.Template, bool) {
	t, ok := p.pages[name]
	return t, ok
}

// pageData is the root value every page template receives.
type pageData struct {
	Title    string
	Nav      string
	User     *core.User
	Flash    *flash
	Currency string
	Content  any
}

// formStatus is the status of a form re-rendered with a validation error:
// 422 for htmx and JSON callers, 200 for a plain browser post.
func formStatus(r *http.Request) int {
	if r.Header.Get("HX-Request") == "true" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

// render executes page into a buffer first so a template failure still
// produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, content any) {
	t, ok := s.pages.lookup(page)
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown page %q", page), log.ComponentTemplate, log.OpRender)
		return
	}

	data := pageData{
		Title:   title,
		Nav:     strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[0],
		Flash:   popFlash(w, r),
		Content: content,
	}
	if u, ok := userFrom(r.Context()); ok {
		data.User = &u
		pref, err := s.svc.Preferences.Get(r.Context(), u.ID)
		if err != nil {
			s.events.LogError(r.Context(), "Failed to load preferences", err, log.ComponentTemplate, log.OpRender, log.NewFields().WithUser(u.ID))
		}
		data.Currency = pref.Currency
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.serverError(w, r, fmt.Errorf("render %s: %w", page, err), log.ComponentTemplate, log.OpRender)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
