package storage

import (
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotImage is returned for uploads whose content is not an image
var ErrNotImage = errors.New("uploaded file is not an image")

// DetectContentType sniffs the MIME type from the leading bytes
func DetectContentType(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(strings.ToLower(mime))
}

// ImageContentType returns the sniffed type of data, or ErrNotImage
func ImageContentType(data []byte) (string, error) {
	mime := DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", ErrNotImage
	}
	return mime, nil
}
