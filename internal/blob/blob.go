// Package blob abstracts the object storage that holds customer-uploaded
// images. Uploads never stream through this server: the client asks for a
// presigned upload target and PUTs the file straight to storage. Deletion
// is advisory cleanup and is always best-effort.
package blob

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UploadTarget is a time-limited presigned write URL plus the public read
// URL the object will have once uploaded.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// Store is the object storage interface.
type Store interface {
	// CreateUploadTarget names a fresh object for the given MIME type and
	// returns its presigned upload target.
	CreateUploadTarget(ctx context.Context, contentType string) (UploadTarget, error)
	// Delete removes the object behind a public URL. Implementations
	// derive the storage key from the URL path.
	Delete(ctx context.Context, publicURL string) error
}

// keyPrefix namespaces customer uploads within the bucket.
const keyPrefix = "uploads/"

// mimeExtensions covers the types the upload UI produces; anything else
// falls through to the platform MIME registry and finally to ".bin".
var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
	"image/tiff": ".tiff",
}

// ExtensionForMIME derives a file extension from a MIME type. Unknown
// types map to the generic binary extension.
func ExtensionForMIME(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ext, ok := mimeExtensions[ct]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(ct); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// NewObjectKey names a new upload: a random identifier plus a timestamp and
// an extension derived from the MIME type.
func NewObjectKey(contentType string) string {
	return fmt.Sprintf("%s%s-%d%s", keyPrefix, uuid.NewString(), time.Now().UnixMilli(), ExtensionForMIME(contentType))
}

// KeyFromURL derives the storage key from a public object URL.
func KeyFromURL(publicURL string) (string, error) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parsing object URL %q: %w", publicURL, err)
	}
	path := strings.TrimPrefix(u.Path, "/")
	if i := strings.Index(path, keyPrefix); i >= 0 {
		return path[i:], nil
	}
	if path == "" {
		return "", fmt.Errorf("object URL %q has no path", publicURL)
	}
	return path, nil
}
