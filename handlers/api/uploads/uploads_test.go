package uploads

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakeFetcher struct {
	paths []string
	resp  *http.Response
	err   error
}

func (f *fakeFetcher) FetchUpload(_ context.Context, mediaPath string, _ http.Header) (*http.Response, error) {
	f.paths = append(f.paths, mediaPath)
	return f.resp, f.err
}

func newRouter(f Fetcher) http.Handler {
	r := chi.NewRouter()
	r.Get("/uploads/*", HandleUpload(f))
	return r
}

func TestHandleUpload(t *testing.T) {
	f := &fakeFetcher{resp: &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"image/png"}, "Set-Cookie": {"x=y"}},
		Body:       io.NopCloser(strings.NewReader("png-bytes")),
	}}

	rr := httptest.NewRecorder()
	newRouter(f).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/2024/a.png", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "png-bytes" {
		t.Errorf("response = %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
	if rr.Header().Get("Set-Cookie") != "" {
		t.Error("backend cookies must not be forwarded")
	}
	if len(f.paths) != 1 || f.paths[0] != "2024/a.png" {
		t.Errorf("paths = %v", f.paths)
	}
}

func TestHandleUploadBackendDown(t *testing.T) {
	f := &fakeFetcher{err: errors.New("refused")}

	rr := httptest.NewRecorder()
	newRouter(f).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/a.png", nil))

	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
}

func TestValidPath(t *testing.T) {
	tests := map[string]bool{
		"a.png":         true,
		"2024/01/a.mp4": true,
		"":              false,
		"../secret":     false,
		"a/../../b":     false,
		`a\b`:           false,
	}
	for p, want := range tests {
		if got := validPath(p); got != want {
			t.Errorf("validPath(%q) = %v, want %v", p, got, want)
		}
	}
}
