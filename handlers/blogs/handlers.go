package blogs

import (
	"blogfront/middleware"
	"blogfront/notify"
	"blogfront/pagestate"
	"blogfront/ui"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators of the feed handlers.
type Deps struct {
	Renderer  *ui.Renderer
	Backend   Backend
	Pages     *pagestate.Registry[*Feed]
	Toasts    *notify.Center
	MediaBase string
}

// HandleFeed renders the feed instance named by ?v=, or mounts a new one
// when there is none.
func HandleFeed(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientID := middleware.ClientID(ctx)

		v := r.URL.Query().Get("v")
		var view FeedView
		err := d.Pages.Do(clientID, v, func(f *Feed) error {
			view = f.View(v)
			return nil
		})
		if errors.Is(err, pagestate.ErrNotFound) {
			v, err = d.mount(ctx, clientID, func(f *Feed, _ notify.Notifier) {
				view = f.View("")
			})
			view.Instance = v
		}
		if err != nil {
			logrus.WithField("client_id", clientID).WithError(err).Error("Failed to load feed")
			d.Renderer.Error(w, r, http.StatusInternalServerError, "Failed to load blogs", ui.NavFor(middleware.SessionFromContext(ctx)))
			return
		}

		d.Renderer.Render(w, r, http.StatusOK, ui.PageBlogs, ui.Page{
			Title:  "Blogs",
			Nav:    ui.NavFor(middleware.SessionFromContext(ctx)),
			Toasts: d.Toasts.Drain(clientID),
			Data:   view,
		})
	}
}

func HandleLike(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := chi.URLParam(r, "id")
		d.act(w, r, func(ctx context.Context, f *Feed, n notify.Notifier) {
			f.Like(ctx, n, blogID)
		})
	}
}

func HandleToggleComments(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := chi.URLParam(r, "id")
		d.act(w, r, func(ctx context.Context, f *Feed, n notify.Notifier) {
			f.ToggleComments(ctx, n, blogID)
		})
	}
}

func HandleSubmitComment(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.act(w, r, func(ctx context.Context, f *Feed, n notify.Notifier) {
			f.SetCommentText(r.PostForm.Get("text"))
			f.SubmitComment(ctx, n)
		})
	}
}

// mount creates and loads a new feed for clientID, then runs fn on it
// before any other request can reach it.
func (d Deps) mount(ctx context.Context, clientID string, fn func(*Feed, notify.Notifier)) (string, error) {
	n := d.Toasts.For(clientID)
	f := NewFeed(d.Backend, d.MediaBase, middleware.SessionFromContext(ctx))
	return d.Pages.Mount(clientID, f, func(f *Feed) error {
		f.Load(ctx, n)
		if fn != nil {
			fn(f, n)
		}
		return nil
	})
}

// act runs fn on the posted feed instance and redirects back to it. A
// vanished instance is replaced by a freshly loaded one first.
func (d Deps) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, *Feed, notify.Notifier)) {
	ctx := r.Context()
	clientID := middleware.ClientID(ctx)
	if err := r.ParseForm(); err != nil {
		d.Renderer.Error(w, r, http.StatusBadRequest, "Invalid form", ui.NavFor(middleware.SessionFromContext(ctx)))
		return
	}

	v := r.PostForm.Get("v")
	n := d.Toasts.For(clientID)
	err := d.Pages.Do(clientID, v, func(f *Feed) error {
		fn(ctx, f, n)
		return nil
	})
	if errors.Is(err, pagestate.ErrNotFound) {
		v, err = d.mount(ctx, clientID, func(f *Feed, n notify.Notifier) {
			fn(ctx, f, n)
		})
	}
	if err != nil {
		logrus.WithField("client_id", clientID).WithError(err).Error("Feed action failed")
		d.Renderer.Error(w, r, http.StatusInternalServerError, "Action failed", ui.NavFor(middleware.SessionFromContext(ctx)))
		return
	}

	http.Redirect(w, r, "/blogs?v="+url.QueryEscape(v), http.StatusSeeOther)
}
