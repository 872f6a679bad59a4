// Package uploads proxies blog media from the backend's /uploads/ tree so
// browsers only ever talk to blogfront.
package uploads

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Fetcher opens an upload on the backend.
type Fetcher interface {
	FetchUpload(ctx context.Context, mediaPath string, header http.Header) (*http.Response, error)
}

// passthroughHeaders are copied from the backend response.
var passthroughHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Cache-Control",
	"ETag",
	"Last-Modified",
}

func HandleUpload(fetcher Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaPath := chi.URLParam(r, "*")
		if !validPath(mediaPath) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Upload not found"})
			return
		}

		resp, err := fetcher.FetchUpload(r.Context(), mediaPath, r.Header)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"path":  mediaPath,
			}).Warn("Failed to fetch upload")
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, map[string]string{"error": "Failed to fetch upload from backend"})
			return
		}
		defer resp.Body.Close()

		for _, h := range passthroughHeaders {
			if v := resp.Header.Get(h); v != "" {
				w.Header().Set(h, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logrus.WithField("path", mediaPath).WithError(err).Debug("Upload stream interrupted")
		}
	}
}

func validPath(p string) bool {
	if p == "" || strings.Contains(p, `\`) {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
