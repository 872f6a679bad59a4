package admin

import (
	"blogfront/core"
	"blogfront/middleware"
	"blogfront/notify"
	"blogfront/pagestate"
	"blogfront/ui"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadBytes = 100 << 20
	// memory kept for multipart parts before they spill to temp files
	maxMemoryBytes = 32 << 20
)

// Deps are the collaborators of the admin handlers.
type Deps struct {
	Renderer *ui.Renderer
	Backend  Backend
	Pages    *pagestate.Registry[*Manager]
	Toasts   *notify.Center
}

type (
	// ConfirmView is the data of the delete confirmation page.
	ConfirmView struct {
		Message   string `json:"message"`
		Action    string `json:"action"`
		CancelURL string `json:"cancelUrl"`
		Instance  string `json:"instance"`
		Page      int    `json:"page"`
	}
)

// HandleGrid renders the grid instance named by ?v=, or mounts a new one.
func HandleGrid(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientID := middleware.ClientID(ctx)
		nav := ui.NavFor(middleware.SessionFromContext(ctx))

		v := r.URL.Query().Get("v")
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		var view GridView
		err := d.Pages.Do(clientID, v, func(m *Manager) error {
			view = m.View(v, page)
			return nil
		})
		if errors.Is(err, pagestate.ErrNotFound) {
			v, err = d.mount(ctx, clientID, func(m *Manager, _ notify.Notifier) {
				view = m.View("", page)
			})
			view.Instance = v
		}
		if err != nil {
			logrus.WithField("client_id", clientID).WithError(err).Error("Failed to load blog grid")
			d.Renderer.Error(w, r, http.StatusInternalServerError, "Failed to load blogs", nav)
			return
		}

		d.Renderer.Render(w, r, http.StatusOK, ui.PageAdmin, ui.Page{
			Title:  "Admin Blog Manager",
			Nav:    nav,
			Toasts: d.Toasts.Drain(clientID),
			Data:   view,
		})
	}
}

// HandleSubmit creates or updates a blog from the multipart editor form.
func HandleSubmit(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		d.act(w, r, func(ctx context.Context, m *Manager, n notify.Notifier) error {
			file, err := formMedia(r)
			if err != nil {
				return err
			}
			m.SetForm(Form{
				Title:       r.PostForm.Get("title"),
				Description: r.PostForm.Get("description"),
				Media:       file,
			})
			m.Submit(ctx, n)
			return nil
		})
	}
}

func HandleEdit(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := chi.URLParam(r, "id")
		d.act(w, r, func(_ context.Context, m *Manager, _ notify.Notifier) error {
			m.Edit(blogID)
			return nil
		})
	}
}

func HandleCancel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.act(w, r, func(_ context.Context, m *Manager, _ notify.Notifier) error {
			m.Cancel()
			return nil
		})
	}
}

// HandleConfirmDelete asks for confirmation before deleting a blog.
func HandleConfirmDelete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := chi.URLParam(r, "id")
		v := r.URL.Query().Get("v")
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		d.Renderer.Render(w, r, http.StatusOK, ui.PageConfirm, ui.Page{
			Title: "Delete blog",
			Nav:   ui.NavFor(middleware.SessionFromContext(r.Context())),
			Data: ConfirmView{
				Message:   ConfirmDelete,
				Action:    "/blog-master/blogs/" + url.PathEscape(blogID) + "/delete",
				CancelURL: gridURL(v, page),
				Instance:  v,
				Page:      page,
			},
		})
	}
}

// HandleDelete deletes a blog when the form carries confirm=yes.
func HandleDelete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := chi.URLParam(r, "id")
		d.act(w, r, func(ctx context.Context, m *Manager, n notify.Notifier) error {
			m.Delete(ctx, n, blogID, func(string) bool {
				return r.PostForm.Get("confirm") == "yes"
			})
			return nil
		})
	}
}

func (d Deps) mount(ctx context.Context, clientID string, fn func(*Manager, notify.Notifier)) (string, error) {
	n := d.Toasts.For(clientID)
	m := NewManager(d.Backend, middleware.SessionFromContext(ctx))
	return d.Pages.Mount(clientID, m, func(m *Manager) error {
		m.Load(ctx, n)
		if fn != nil {
			fn(m, n)
		}
		return nil
	})
}

// act parses the posted form, runs fn on the posted grid instance and
// redirects back to it. A vanished instance is replaced by a freshly
// loaded one first.
func (d Deps) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, *Manager, notify.Notifier) error) {
	ctx := r.Context()
	clientID := middleware.ClientID(ctx)
	nav := ui.NavFor(middleware.SessionFromContext(ctx))

	if err := parseForm(r); err != nil {
		logrus.WithField("client_id", clientID).WithError(err).Warn("Invalid admin form")
		d.Renderer.Error(w, r, http.StatusBadRequest, "Invalid form", nav)
		return
	}

	v := r.PostForm.Get("v")
	n := d.Toasts.For(clientID)
	var actErr error
	err := d.Pages.Do(clientID, v, func(m *Manager) error {
		actErr = fn(ctx, m, n)
		return nil
	})
	if errors.Is(err, pagestate.ErrNotFound) {
		v, err = d.mount(ctx, clientID, func(m *Manager, n notify.Notifier) {
			actErr = fn(ctx, m, n)
		})
	}
	if err == nil {
		err = actErr
	}
	if err != nil {
		logrus.WithField("client_id", clientID).WithError(err).Error("Admin action failed")
		d.Renderer.Error(w, r, http.StatusBadRequest, "Action failed", nav)
		return
	}

	page, _ := strconv.Atoi(r.PostForm.Get("page"))
	http.Redirect(w, r, gridURL(v, page), http.StatusSeeOther)
}

func gridURL(v string, page int) string {
	q := url.Values{}
	if v != "" {
		q.Set("v", v)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/blog-master"
	}
	return "/blog-master?" + q.Encode()
}

func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxMemoryBytes)
	}
	return r.ParseForm()
}

// formMedia reads the optional media upload. No file means nil.
func formMedia(r *http.Request) (*core.MediaFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile("media")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	return &core.MediaFile{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
