// Package backend is the REST client for the blog backend. Every business
// rule lives on the other side of this client.
package backend

import (
	"blogfront/core"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	dialTimeout = 10 * time.Second
	// maxResponseBytes caps JSON bodies read from the backend.
	maxResponseBytes = 10 << 20
)

type (
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	Registration struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// AuthResult is the data of a login or registration response. Token may
	// be empty if the backend omitted it.
	AuthResult struct {
		Token string    `json:"token"`
		User  core.User `json:"user"`
	}

	envelope struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
)

// Client talks to the backend at BaseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	dialer := &net.Dialer{Timeout: dialTimeout}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{DialContext: dialer.DialContext},
			Timeout:   timeout,
		},
	}
}

// BaseURL is the backend root, used to resolve upload paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var res AuthResult
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/login", "", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	var res AuthResult
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/register", "", reg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListBlogs returns every blog. A missing data field is an empty list.
func (c *Client) ListBlogs(ctx context.Context) ([]core.Blog, error) {
	var blogs []core.Blog
	if err := c.do(ctx, http.MethodGet, "/api/blogs", "", nil, "", &blogs); err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []core.Blog{}
	}
	return blogs, nil
}

func (c *Client) CreateBlog(ctx context.Context, token string, in core.BlogInput) error {
	return c.sendMultipart(ctx, http.MethodPost, "/api/blogs", token, in)
}

func (c *Client) UpdateBlog(ctx context.Context, token, id string, in core.BlogInput) error {
	return c.sendMultipart(ctx, http.MethodPut, "/api/blogs/"+url.PathEscape(id), token, in)
}

func (c *Client) DeleteBlog(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/blogs/"+url.PathEscape(id), token, nil, "", nil)
}

func (c *Client) LikeBlog(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPost, "/api/blogs/"+url.PathEscape(id)+"/like", token, nil, "", nil)
}

// ListComments returns the comments of blogID. An OK response without data
// is reported as an *APIError carrying the server message.
func (c *Client) ListComments(ctx context.Context, blogID string) ([]core.Comment, error) {
	var env envelope
	err := c.do(ctx, http.MethodGet, "/api/comments/"+url.PathEscape(blogID), "", nil, "", &env)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &APIError{Status: http.StatusOK, Message: env.Message}
	}
	var comments []core.Comment
	if err := json.Unmarshal(env.Data, &comments); err != nil {
		return nil, fmt.Errorf("error decoding response data: %w", err)
	}
	return comments, nil
}

func (c *Client) AddComment(ctx context.Context, token, blogID, text string) error {
	body := struct {
		Text string `json:"text"`
	}{Text: text}
	return c.sendJSON(ctx, http.MethodPost, "/api/comments/"+url.PathEscape(blogID), token, body, nil)
}

// FetchUpload opens the upload at mediaPath for streaming. The caller
// closes the body.
func (c *Client) FetchUpload(ctx context.Context, mediaPath string, header http.Header) (*http.Response, error) {
	target := c.baseURL + "/uploads/" + strings.TrimLeft(mediaPath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	for _, h := range []string{"Range", "If-None-Match", "If-Modified-Since"} {
		if v := header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	return resp, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path, token string, payload, out any) error {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling request: %w", err)
	}
	return c.do(ctx, method, path, token, bytes.NewReader(reqBytes), "application/json", out)
}

func (c *Client) sendMultipart(ctx context.Context, method, path, token string, in core.BlogInput) error {
	body, contentType, err := encodeBlogForm(in)
	if err != nil {
		return fmt.Errorf("error encoding form: %w", err)
	}
	return c.do(ctx, method, path, token, body, contentType, nil)
}

// encodeBlogForm writes title, description and, when present, the media
// file as multipart/form-data.
func encodeBlogForm(in core.BlogInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("title", in.Title); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("description", in.Description); err != nil {
		return nil, "", err
	}
	if in.Media != nil {
		contentType := in.Media.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, in.Media.Name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(in.Media.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// do sends one request. Non-2xx answers become *APIError; on success the
// envelope's data field is decoded into out when out is not nil. An
// *envelope out receives the whole envelope.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{"method": method, "path": path}).WithError(err).Warn("Backend request failed")
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Backend request")

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBytes, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("error decoding response: %w", decodeErr)
	}
	if e, ok := out.(*envelope); ok {
		*e = env
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}
