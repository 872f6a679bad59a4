package core

import "encoding/json"

type (
	// Author is the embedded creator reference on blogs and comments.
	Author struct {
		Name string `json:"name"`
	}

	// Blog is a content item owned by the backend. The public feed reads
	// MediaURL while the admin grid reads Media; both are kept.
	Blog struct {
		ID          string  `json:"_id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		MediaURL    string  `json:"mediaUrl,omitempty"`
		Media       string  `json:"media,omitempty"`
		CreatedBy   *Author `json:"createdBy,omitempty"`
		Likes       Likes   `json:"likes"`
		CreatedAt   string  `json:"createdAt"`
	}

	Comment struct {
		ID        string  `json:"_id"`
		Text      string  `json:"text"`
		CreatedBy *Author `json:"createdBy,omitempty"`
		CreatedAt string  `json:"createdAt"`
	}

	// Likes holds the ids of users who liked a blog. The backend may send
	// plain ids or populated user objects.
	Likes []string

	// MediaFile is an uploaded image or video held in memory until it is
	// forwarded to the backend.
	MediaFile struct {
		Name        string
		ContentType string
		Data        []byte
	}

	// BlogInput is the multipart payload for creating or updating a blog.
	BlogInput struct {
		Title       string
		Description string
		Media       *MediaFile
	}
)

// LikedBy reports whether userID is among the blog's likes.
func (b Blog) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range b.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// AuthorName returns the creator's name or fallback when there is none.
func (b Blog) AuthorName(fallback string) string {
	if b.CreatedBy == nil || b.CreatedBy.Name == "" {
		return fallback
	}
	return b.CreatedBy.Name
}

func (b *Blog) UnmarshalJSON(data []byte) error {
	type plain Blog
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Blog(raw.plain)
	if b.ID == "" {
		b.ID = raw.AltID
	}
	return nil
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Comment(raw.plain)
	if c.ID == "" {
		c.ID = raw.AltID
	}
	return nil
}

func (l *Likes) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	ids := make(Likes, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			ids = append(ids, id)
			continue
		}
		var user User
		if err := json.Unmarshal(item, &user); err != nil {
			return err
		}
		ids = append(ids, user.ID)
	}
	*l = ids
	return nil
}
