// Package storage provides the document store used for farmer documents
// and export artifacts.
package storage

import (
	"context"
	"io"
	"time"
)

// Fixed folder names. Each document category maps 1:1 to a folder in the
// bucket; export artifacts live under their own prefix.
const (
	CategoryProfilePic = "profile-pic"
	CategoryAadharDoc  = "aadhar-doc"
	CategoryBankDoc    = "bank-doc"
	CategoryLandDoc    = "land-doc"
	ExportPrefix       = "exports"
)

// ObjectPath joins a category folder and a stored filename.
func ObjectPath(category, filename string) string {
	return category + "/" + filename
}

// DocumentStore abstracts the object store. Upload and SignedURL errors are
// fatal to the calling operation; Remove is best-effort and callers log
// rather than abort on its errors.
type DocumentStore interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, paths ...string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
