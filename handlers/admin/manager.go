// Package admin serves the blog management grid: list, create, edit and
// delete blogs.
package admin

import (
	"blogfront/backend"
	"blogfront/core"
	"blogfront/media"
	"blogfront/notify"
	"blogfront/ui"
	"context"

	"github.com/sirupsen/logrus"
)

// PageSize is the number of grid rows per page.
const PageSize = 100

// ConfirmDelete is the question asked before a blog is deleted.
const ConfirmDelete = "Delete this blog?"

const (
	msgFetchFailed  = "Failed to fetch blogs"
	msgFetchError   = "Server error fetching blogs"
	msgUpdated      = "Blog updated"
	msgAdded        = "Blog added"
	msgSubmitFailed = "Operation failed"
	msgSubmitError  = "Server error"
	msgDeleted      = "Blog deleted"
	msgDeleteFailed = "Delete failed"
	msgDeleteError  = "Server error deleting blog"
)

// Backend is the part of the backend client the grid needs.
type Backend interface {
	ListBlogs(ctx context.Context) ([]core.Blog, error)
	CreateBlog(ctx context.Context, token string, in core.BlogInput) error
	UpdateBlog(ctx context.Context, token, id string, in core.BlogInput) error
	DeleteBlog(ctx context.Context, token, id string) error
}

type (
	// Form is the blog editor. Media is never pre-filled.
	Form struct {
		Title       string
		Description string
		Media       *core.MediaFile
	}

	Row struct {
		ID        string     `json:"id"`
		Title     string     `json:"title"`
		Author    string     `json:"author"`
		Likes     int        `json:"likes"`
		Media     string     `json:"media,omitempty"`
		MediaKind media.Kind `json:"mediaKind,omitempty"`
		CreatedAt string     `json:"createdAt"`
	}

	FormView struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	// GridView is the data of the admin page.
	GridView struct {
		Instance   string   `json:"instance"`
		Editing    bool     `json:"editing"`
		EditingID  string   `json:"editingId,omitempty"`
		Form       FormView `json:"form"`
		Rows       []Row    `json:"rows"`
		Page       int      `json:"page"`
		TotalPages int      `json:"totalPages"`
		Total      int      `json:"total"`
	}
)

// Manager is the live state of one mounted admin page. Access is
// serialized by the page registry.
type Manager struct {
	be    Backend
	token string

	blogs     []core.Blog
	form      Form
	editingID string
}

func NewManager(be Backend, sess core.Session) *Manager {
	return &Manager{be: be, token: sess.Token, blogs: []core.Blog{}}
}

// Load refreshes the blog list. On failure the previous list is kept.
func (m *Manager) Load(ctx context.Context, n notify.Notifier) {
	blogs, err := m.be.ListBlogs(ctx)
	if err != nil {
		if _, ok := backend.AsAPIError(err); ok {
			n.Error(backend.MessageOr(err, msgFetchFailed))
		} else {
			logrus.WithError(err).Warn("Failed to fetch blogs")
			n.Error(msgFetchError)
		}
		return
	}
	m.blogs = blogs
}

// Edit starts editing blogID, copying its title and description into the
// form. It reports whether the blog is in the list.
func (m *Manager) Edit(blogID string) bool {
	for _, b := range m.blogs {
		if b.ID == blogID {
			m.editingID = b.ID
			m.form = Form{Title: b.Title, Description: b.Description}
			return true
		}
	}
	return false
}

// Cancel leaves editing mode and clears the form.
func (m *Manager) Cancel() {
	m.editingID = ""
	m.form = Form{}
}

func (m *Manager) SetForm(f Form) {
	m.form = f
}

// Submit creates a blog, or updates the one being edited, from the form.
// Success resets the editor and reloads the list.
func (m *Manager) Submit(ctx context.Context, n notify.Notifier) {
	in := core.BlogInput{Title: m.form.Title, Description: m.form.Description, Media: m.form.Media}

	var err error
	if m.editingID != "" {
		err = m.be.UpdateBlog(ctx, m.token, m.editingID, in)
	} else {
		err = m.be.CreateBlog(ctx, m.token, in)
	}
	if err != nil {
		if _, ok := backend.AsAPIError(err); ok {
			n.Error(backend.MessageOr(err, msgSubmitFailed))
		} else {
			logrus.WithField("editing_id", m.editingID).WithError(err).Warn("Blog submit failed")
			n.Error(msgSubmitError)
		}
		return
	}

	if m.editingID != "" {
		n.Success(msgUpdated)
	} else {
		n.Success(msgAdded)
	}
	m.Cancel()
	m.Load(ctx, n)
}

// Delete removes blogID after confirm approves ConfirmDelete. On success
// only that row is dropped from the local list.
func (m *Manager) Delete(ctx context.Context, n notify.Notifier, blogID string, confirm func(question string) bool) {
	if !confirm(ConfirmDelete) {
		return
	}
	if err := m.be.DeleteBlog(ctx, m.token, blogID); err != nil {
		if _, ok := backend.AsAPIError(err); ok {
			n.Error(backend.MessageOr(err, msgDeleteFailed))
		} else {
			logrus.WithField("blog_id", blogID).WithError(err).Warn("Blog delete failed")
			n.Error(msgDeleteError)
		}
		return
	}

	n.Success(msgDeleted)
	kept := make([]core.Blog, 0, len(m.blogs))
	for _, b := range m.blogs {
		if b.ID != blogID {
			kept = append(kept, b)
		}
	}
	m.blogs = kept
}

func (m *Manager) EditingID() string {
	return m.editingID
}

// Blogs returns a copy of the current list.
func (m *Manager) Blogs() []core.Blog {
	return append([]core.Blog(nil), m.blogs...)
}

// TotalPages is never less than one.
func (m *Manager) TotalPages() int {
	if len(m.blogs) == 0 {
		return 1
	}
	return (len(m.blogs) + PageSize - 1) / PageSize
}

// Rows returns the grid rows of page, clamped into range, and the page
// actually used.
func (m *Manager) Rows(page int) ([]Row, int) {
	if page < 1 {
		page = 1
	}
	if total := m.TotalPages(); page > total {
		page = total
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(m.blogs) {
		end = len(m.blogs)
	}

	rows := make([]Row, 0, end-start)
	for _, b := range m.blogs[start:end] {
		row := Row{
			ID:        b.ID,
			Title:     b.Title,
			Author:    b.AuthorName("Unknown"),
			Likes:     len(b.Likes),
			CreatedAt: ui.FormatDateTime(b.CreatedAt),
		}
		if b.Media != "" {
			row.Media = b.Media
			row.MediaKind = media.GridKind(b.Media)
		}
		rows = append(rows, row)
	}
	return rows, page
}

// View snapshots the manager for rendering.
func (m *Manager) View(instance string, page int) GridView {
	rows, page := m.Rows(page)
	return GridView{
		Instance:   instance,
		Editing:    m.editingID != "",
		EditingID:  m.editingID,
		Form:       FormView{Title: m.form.Title, Description: m.form.Description},
		Rows:       rows,
		Page:       page,
		TotalPages: m.TotalPages(),
		Total:      len(m.blogs),
	}
}
