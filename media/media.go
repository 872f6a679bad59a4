// Package media classifies blog media by file extension and builds the URLs
// the feed and the admin grid render.
package media

import (
	"fmt"
	"regexp"
	"strings"
)

type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

var (
	imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true}
	videoExts = map[string]bool{"mp4": true, "webm": true, "ogg": true}

	videoSuffix = regexp.MustCompile(`(?i)\.(mp4|webm|ogg)$`)
)

// KindOf classifies name by the text after its last dot. A name without a
// dot is treated as its own extension.
func KindOf(name string) Kind {
	if name == "" {
		return KindUnknown
	}
	ext := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	switch {
	case ext == "":
		return KindUnknown
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	}
	return KindUnknown
}

// GridKind is the admin grid's rule: a video suffix means video, anything
// else is shown as an image.
func GridKind(name string) Kind {
	if videoSuffix.MatchString(name) {
		return KindVideo
	}
	return KindImage
}

// UploadURL resolves a stored media path against base + "/uploads/". The
// path is used as stored: existing percent-escapes are kept and only bytes
// that cannot appear in a URL path are escaped.
func UploadURL(base, mediaPath string) string {
	return strings.TrimRight(base, "/") + "/uploads/" + escapePath(strings.TrimLeft(mediaPath, "/"))
}

func escapePath(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '%' && i+2 < len(p) && isHex(p[i+1]) && isHex(p[i+2]):
			b.WriteByte(c)
		case c != '%' && pathSafe(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func pathSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~!$&'()*+,;=:@/", c) >= 0
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
