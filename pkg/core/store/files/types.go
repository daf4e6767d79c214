package files

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("file not found")

type FileStore interface {
	Upload(ctx context.Context, name string, data []byte) (*StoredFile, error)
	Delete(ctx context.Context, id string) error
	Open(ctx context.Context, id string) (*File, error)
	List(ctx context.Context) ([]string, error)
	ViewURL(id string) string
}

// StoredFile is what an upload hands back to the caller.
type StoredFile struct {
	ID          string `json:"file_id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type File struct {
	StoredFile
	Modified time.Time
	Data     []byte
}
