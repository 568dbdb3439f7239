package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates
var templatesFS embed.FS

// Pages names.
const (
	PageWelcome  = "welcome"
	PageError    = "error"
	PageBookList = "book/list"
	PageBookNew  = "book/new"
	PageBookEdit = "book/edit"
)

// Views holds the parsed html pages.
type Views struct {
	pages map[string]*template.Template
}

// WelcomePage is the data of the welcome page.
type WelcomePage struct {
	Title string
	Body  string
}

// BookListPage is the data of the books list page.
type BookListPage struct {
	Books []Book
}

// BookEditPage is the data of the book edition page.
type BookEditPage struct {
	Book Book
}

// ErrorPage is the data of the error page.
type ErrorPage struct {
	Message string
}

// NewViews parses all embedded pages.
func NewViews() (*Views, error) {
	v := &Views{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageWelcome, PageError, PageBookList, PageBookNew, PageBookEdit} {
		tmpl, err := template.ParseFS(templatesFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s page: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

// RenderBytes executes the page into a buffer.
func (v *Views) RenderBytes(name string, data interface{}) ([]byte, error) {
	tmpl, ok := v.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("templating error: %w", err)
	}
	return buf.Bytes(), nil
}

// Render writes the page with the status code. Nothing is written if
// the page fails to render.
func (v *Views) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	page, err := v.RenderBytes(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(page)
	return err
}
