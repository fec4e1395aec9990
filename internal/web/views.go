// Package web renders the HTML pages of the site from view-models.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageHome        = "home"
	PageSignup      = "signup"
	PageLogin       = "login"
	PageLoginFailed = "login_failed"
	PageMembers     = "members"
	PageLogout      = "logout"
	PageNotFound    = "not_found"
	PageError       = "error"
)

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{
		PageHome, PageSignup, PageLogin, PageLoginFailed,
		PageMembers, PageLogout, PageNotFound, PageError,
	} {
		pages[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html"))
	}
}

// HomeView is the landing page. An empty Name renders the anonymous variant.
type HomeView struct {
	Name string
}

// SignupView is the signup form, annotated with the fields missing on the
// previous attempt.
type SignupView struct {
	Missing []string
}

// MembersView is the members-only page.
type MembersView struct {
	Name     string
	ImageURL string
}

type page struct {
	Title    string
	Name     string
	Missing  []string
	ImageURL string
}

func render(w io.Writer, name, title string, p page) error {
	tmpl, ok := pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	p.Title = title
	if err := tmpl.ExecuteTemplate(w, "layout", p); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

func RenderHome(w io.Writer, v HomeView) error {
	return render(w, PageHome, "Home", page{Name: v.Name})
}

func RenderSignup(w io.Writer, v SignupView) error {
	return render(w, PageSignup, "Sign up", page{Missing: v.Missing})
}

func RenderLogin(w io.Writer) error {
	return render(w, PageLogin, "Log in", page{})
}

func RenderLoginFailed(w io.Writer) error {
	return render(w, PageLoginFailed, "Log in", page{})
}

func RenderMembers(w io.Writer, v MembersView) error {
	return render(w, PageMembers, "Members", page{Name: v.Name, ImageURL: v.ImageURL})
}

func RenderLogout(w io.Writer) error {
	return render(w, PageLogout, "Logged out", page{})
}

func RenderNotFound(w io.Writer) error {
	return render(w, PageNotFound, "Not found", page{})
}

func RenderError(w io.Writer) error {
	return render(w, PageError, "Error", page{})
}
