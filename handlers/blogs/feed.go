// Package blogs serves the public blog feed: cards with media, likes and
// per-post comment threads.
package blogs

import (
	"blogfront/backend"
	"blogfront/core"
	"blogfront/media"
	"blogfront/notify"
	"blogfront/ui"
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	msgFetchBlogs       = "Error fetching blogs"
	msgLiked            = "Liked!"
	msgLikeFailed       = "Failed to like"
	msgLikeError        = "Like action failed"
	msgLoadComments     = "Failed to load comments"
	msgLoadCommentsErr  = "Error loading comments"
	msgCommentAdded     = "Comment added!"
	msgCommentFailed    = "Failed to add comment"
	msgCommentActionErr = "Comment action failed"
)

// Backend is the part of the backend client the feed needs.
type Backend interface {
	ListBlogs(ctx context.Context) ([]core.Blog, error)
	LikeBlog(ctx context.Context, token, id string) error
	ListComments(ctx context.Context, blogID string) ([]core.Comment, error)
	AddComment(ctx context.Context, token, blogID, text string) error
}

type (
	// FeedView is the data of the feed page.
	FeedView struct {
		Instance    string `json:"instance"`
		Cards       []Card `json:"cards"`
		SelectedID  string `json:"selectedId,omitempty"`
		CommentText string `json:"commentText"`
	}

	Card struct {
		ID          string        `json:"id"`
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Author      string        `json:"author"`
		CreatedAt   string        `json:"createdAt"`
		MediaURL    string        `json:"mediaUrl,omitempty"`
		MediaKind   media.Kind    `json:"mediaKind,omitempty"`
		LikeCount   int           `json:"likeCount"`
		Liked       bool          `json:"liked"`
		ShareURL    string        `json:"shareUrl"`
		Open        bool          `json:"open"`
		Comments    []CommentView `json:"comments,omitempty"`
	}

	CommentView struct {
		ID        string `json:"id"`
		Author    string `json:"author"`
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
	}
)

// Feed is the live state of one mounted feed page. It is not safe for
// concurrent use; the page registry serializes access.
type Feed struct {
	be        Backend
	mediaBase string
	token     string
	userID    string

	blogs       []core.Blog
	selectedID  string
	comments    map[string][]core.Comment
	commentText string
}

// NewFeed returns an empty feed acting on behalf of sess. Media paths are
// resolved under mediaBase.
func NewFeed(be Backend, mediaBase string, sess core.Session) *Feed {
	return &Feed{
		be:        be,
		mediaBase: mediaBase,
		token:     sess.Token,
		userID:    sess.User.ID,
		blogs:     []core.Blog{},
		comments:  make(map[string][]core.Comment),
	}
}

// Load replaces the blog list with a fresh copy from the backend.
func (f *Feed) Load(ctx context.Context, n notify.Notifier) {
	f.blogs = f.fetchBlogs(ctx, n)
}

func (f *Feed) fetchBlogs(ctx context.Context, n notify.Notifier) []core.Blog {
	blogs, err := f.be.ListBlogs(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Failed to fetch blogs")
		n.Error(msgFetchBlogs)
		return []core.Blog{}
	}
	return blogs
}

// Like sends one like for blogID and reloads the whole list on success.
func (f *Feed) Like(ctx context.Context, n notify.Notifier, blogID string) {
	err := f.be.LikeBlog(ctx, f.token, blogID)
	switch {
	case err == nil:
		f.blogs = f.fetchBlogs(ctx, n)
		n.Success(msgLiked)
	case isAPIError(err):
		n.Error(msgLikeFailed)
	default:
		logrus.WithField("blog_id", blogID).WithError(err).Warn("Like request failed")
		n.Error(msgLikeError)
	}
}

// ToggleComments closes the thread of blogID if it is open, otherwise opens
// it and fetches its comments unless they are already cached.
func (f *Feed) ToggleComments(ctx context.Context, n notify.Notifier, blogID string) {
	if f.selectedID == blogID {
		f.selectedID = ""
		return
	}
	f.selectedID = blogID
	if _, ok := f.comments[blogID]; !ok {
		f.fetchComments(ctx, n, blogID)
	}
}

func (f *Feed) fetchComments(ctx context.Context, n notify.Notifier, blogID string) {
	comments, err := f.be.ListComments(ctx, blogID)
	if err != nil {
		if isAPIError(err) {
			n.Error(backend.MessageOr(err, msgLoadComments))
		} else {
			logrus.WithField("blog_id", blogID).WithError(err).Warn("Comment request failed")
			n.Error(msgLoadCommentsErr)
		}
		return
	}
	f.comments[blogID] = comments
}

// SetCommentText stores the draft of the comment input.
func (f *Feed) SetCommentText(text string) {
	f.commentText = text
}

// SubmitComment posts the draft to the open thread. It does nothing when no
// thread is open or the draft is blank.
func (f *Feed) SubmitComment(ctx context.Context, n notify.Notifier) {
	if f.selectedID == "" || strings.TrimSpace(f.commentText) == "" {
		return
	}
	blogID := f.selectedID
	err := f.be.AddComment(ctx, f.token, blogID, f.commentText)
	switch {
	case err == nil:
		f.commentText = ""
		f.fetchComments(ctx, n, blogID)
		n.Success(msgCommentAdded)
	case isAPIError(err):
		n.Error(msgCommentFailed)
	default:
		logrus.WithField("blog_id", blogID).WithError(err).Warn("Comment request failed")
		n.Error(msgCommentActionErr)
	}
}

// SelectedID is the blog whose thread is open, or "".
func (f *Feed) SelectedID() string {
	return f.selectedID
}

// Comments returns the cached thread of blogID.
func (f *Feed) Comments(blogID string) ([]core.Comment, bool) {
	c, ok := f.comments[blogID]
	return c, ok
}

// View snapshots the feed for rendering.
func (f *Feed) View(instance string) FeedView {
	return FeedView{
		Instance:    instance,
		Cards:       f.Cards(),
		SelectedID:  f.selectedID,
		CommentText: f.commentText,
	}
}

// Cards builds the card list in backend order.
func (f *Feed) Cards() []Card {
	cards := make([]Card, 0, len(f.blogs))
	for _, b := range f.blogs {
		c := Card{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			Author:      b.AuthorName("Unknown"),
			CreatedAt:   ui.FormatDateTime(b.CreatedAt),
			LikeCount:   len(b.Likes),
			Liked:       b.LikedBy(f.userID),
			ShareURL:    shareURL(b),
			Open:        b.ID == f.selectedID,
		}
		if b.MediaURL != "" {
			c.MediaURL = media.UploadURL(f.mediaBase, b.MediaURL)
			c.MediaKind = media.KindOf(b.MediaURL)
		}
		if c.Open {
			for _, cm := range f.comments[b.ID] {
				author := " "
				if cm.CreatedBy != nil && cm.CreatedBy.Name != "" {
					author = cm.CreatedBy.Name
				}
				c.Comments = append(c.Comments, CommentView{
					ID:        cm.ID,
					Author:    author,
					Text:      cm.Text,
					CreatedAt: ui.FormatDateTime(cm.CreatedAt),
				})
			}
		}
		cards = append(cards, c)
	}
	return cards
}

func shareURL(b core.Blog) string {
	escape := func(s string) string {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	}
	return "mailto:?subject=" + escape(b.Title) + "&body=" + escape(b.Description)
}

func isAPIError(err error) bool {
	_, ok := backend.AsAPIError(err)
	return ok
}
