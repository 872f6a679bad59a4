// Package ui renders the HTML pages of blogfront from embedded templates.
// Every page can also be requested as JSON, in which case the view model is
// encoded as-is.
package ui

import (
	"blogfront/core"
	"blogfront/notify"
	"blogfront/session"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Render.
const (
	PageLogin   = "login"
	PageBlogs   = "blogs"
	PageAdmin   = "admin"
	PageConfirm = "confirm"
	PageError   = "error"
)

var pageNames = []string{PageLogin, PageBlogs, PageAdmin, PageConfirm, PageError}

// dateLayout mimics the en-US toLocaleString output.
const dateLayout = "1/2/2006, 3:04:05 PM"

type (
	// Nav drives the navigation bar.
	Nav struct {
		Visible       bool   `json:"visible"`
		Authenticated bool   `json:"authenticated"`
		Admin         bool   `json:"admin"`
		UserName      string `json:"userName,omitempty"`
	}

	// Page is the layout view model wrapping a page's own data.
	Page struct {
		Title  string         `json:"title"`
		Nav    Nav            `json:"nav"`
		Toasts []notify.Toast `json:"toasts"`
		Data   any            `json:"data"`
	}

	// ErrorData is the data of the error page.
	ErrorData struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
)

// NavFor builds the navigation state shown to sess.
func NavFor(sess core.Session) Nav {
	return Nav{
		Visible:       true,
		Authenticated: session.IsAuthenticated(sess),
		Admin:         session.IsAdminAuthenticated(sess),
		UserName:      sess.User.Name,
	}
}

// FormatDateTime formats an ISO 8601 timestamp in local time. Unparsable
// input yields "Invalid Date".
func FormatDateTime(s string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Local().Format(dateLayout)
		}
	}
	return "Invalid Date"
}

var funcs = template.FuncMap{
	"formatDateTime": FormatDateTime,
	"add":            func(a, b int) int { return a + b },
	"dec":            func(a int) int { return a - 1 },
	"inc":            func(a int) int { return a + 1 },
	"iterate": func(count int) []int {
		items := make([]int, count)
		for i := range items {
			items[i] = i + 1
		}
		return items
	},
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	rd := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		rd.pages[name] = t
	}
	return rd, nil
}

// Render writes page with the given status, as JSON when the client asks
// for it and as HTML otherwise. HTML is rendered into a buffer first so a
// template error never leaves a partial response.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	if page.Toasts == nil {
		page.Toasts = []notify.Toast{}
	}
	if render.GetAcceptedContentType(r) == render.ContentTypeJSON {
		render.Status(r, status)
		render.JSON(w, r, page)
		return
	}

	t, ok := rd.pages[name]
	if !ok {
		logrus.WithField("page", name).Error("Unknown page template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		logrus.WithField("page", name).WithError(err).Error("Failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Error renders the error page.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string, nav Nav) {
	rd.Render(w, r, status, PageError, Page{
		Title: http.StatusText(status),
		Nav:   nav,
		Data:  ErrorData{Status: status, Message: message},
	})
}
