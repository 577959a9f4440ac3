package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"varanasihub.com/site/internal/render"
	"varanasihub.com/site/internal/seo"
	"varanasihub.com/site/templates"
)

// viewData is the root value passed to every page and fragment template.
type viewData struct {
	Title    string
	Meta     seo.Meta
	JSONLD   template.JS
	ThemeCSS template.CSS
	Noindex  bool
	Page     render.Page
	// OOB marks sections rendered as htmx out-of-band swaps.
	OOB     bool
	Return  string
	Home    string
	Message string
}

type copyButton struct {
	Label  string
	Text   string
	Copied bool
	URL    string
}

type pagerControl struct {
	Root   viewData
	Target string
	URL    string
	Pager  render.PagerView
}

func eventURL(viewID, event string) string {
	return "/views/" + url.PathEscape(viewID) + "/" + event
}

// linkURL trusts the schemes produced by the render package, including
// tel:, which html/template would otherwise rewrite.
func linkURL(raw string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, scheme := range []string{"tel:", "https://", "http://", "mailto:"} {
		if strings.HasPrefix(lower, scheme) {
			return template.URL(raw)
		}
	}
	return template.URL("#")
}

var funcMap = template.FuncMap{
	"eventURL": eventURL,
	"linkURL":  linkURL,
	"copyArgs": func(root viewData, label, text string, copied bool) copyButton {
		return copyButton{Label: label, Text: text, Copied: copied, URL: eventURL(root.Page.ViewID, "copy")}
	},
	"pagerArgs": func(root viewData, target string, pager render.PagerView) pagerControl {
		return pagerControl{Root: root, Target: target, URL: eventURL(root.Page.ViewID, target+"-page"), Pager: pager}
	},
}

// RendererOption customises template loading.
type RendererOption func(*Renderer)

// WithTemplatesDir loads templates from dir instead of the embedded copy.
func WithTemplatesDir(dir string) RendererOption {
	return func(r *Renderer) {
		if dir = strings.TrimSpace(dir); dir != "" {
			r.fsys = os.DirFS(dir)
		}
	}
}

// WithDevMode reparses templates on every render.
func WithDevMode(dev bool) RendererOption {
	return func(r *Renderer) {
		r.dev = dev
	}
}

// Renderer executes the page and fragment templates.
type Renderer struct {
	fsys fs.FS
	dev  bool
	tmpl *template.Template
}

// NewRenderer parses the templates once; dev mode defers parsing to each render.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{fsys: templates.FS}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	tmpl, err := parseTemplates(r.fsys)
	if err != nil {
		return nil, err
	}
	r.tmpl = tmpl
	return r, nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	var files []string
	if err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("handlers: no templates found")
	}
	return template.New("_root").Funcs(funcMap).ParseFS(fsys, files...)
}

func (r *Renderer) templates() (*template.Template, error) {
	if r.dev {
		return parseTemplates(r.fsys)
	}
	return r.tmpl, nil
}

// HTML executes the named template into a buffer and writes it with status.
// Nothing is written when execution fails.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, data viewData) error {
	tmpl, err := r.templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func themeCSS(p render.Palette) template.CSS {
	return template.CSS(fmt.Sprintf(
		"--brand-gradient: %s; --brand-solid: %s; --brand-hover: %s; --brand-accent: %s;",
		p.Gradient, p.Solid, p.Hover, p.Accent,
	))
}

func pageData(page render.Page, returnPath, home string) viewData {
	title := page.Meta.Title
	if title == "" {
		title = page.Hero.Name
	}
	return viewData{
		Title:    title,
		Meta:     page.Meta,
		JSONLD:   page.JSONLD,
		ThemeCSS: themeCSS(page.Palette),
		Noindex:  page.Preview,
		Page:     page,
		Return:   returnPath,
		Home:     home,
	}
}
