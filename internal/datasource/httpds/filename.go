package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FilenameFromURL picks a local file name for a download: the last path
// segment with unsafe characters replaced by "_", or a SHA-1 of the whole URL
// when the URL has no usable path.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		base := path.Base(u.Path)
		if base != "." && base != "/" {
			if clean := unsafeChars.ReplaceAllString(base, "_"); clean != "" {
				return clean
			}
		}
	}
	h := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(h[:])
}
