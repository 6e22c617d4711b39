package upload

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// MaxFileSize is the largest accepted upload.
const MaxFileSize int64 = 5 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("only JPEG, PNG, GIF and PDF files are supported")
	ErrTooLarge        = fmt.Errorf("file exceeds the maximum size of %d MB", MaxFileSize/(1024*1024))
	ErrScriptContent   = errors.New("HTML, XML and SVG content is not allowed")
)

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

// ValidateBySniff checks the extension of filename and the first bytes
// (head) against the whitelist. It returns the detected mime type.
func ValidateBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := allowedExt[ext]
	if !ok {
		return "", ErrUnsupportedType
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") ||
		strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") ||
		detected == "image/svg+xml" {
		return "", ErrScriptContent
	}

	if detected != want {
		return "", ErrUnsupportedType
	}
	return detected, nil
}

// CheckSize rejects empty and oversized uploads.
func CheckSize(size int64) error {
	if size <= 0 {
		return errors.New("file is empty")
	}
	if size > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

const (
	maxNameLen = 120
	maxExtLen  = 16
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename strips directories and replaces anything outside
// [a-zA-Z0-9._-] with underscores.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	if len(base) > maxNameLen {
		ext := filepath.Ext(base)
		if len(ext) > maxExtLen {
			ext = ext[:maxExtLen]
		}
		base = base[:maxNameLen-len(ext)] + ext
	}
	return base
}

// ObjectName builds the stored name: <unix millis>-<sanitized name>.
func ObjectName(original string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFilename(original))
}
