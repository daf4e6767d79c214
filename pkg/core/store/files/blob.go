package files

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

const nameMetadataKey = "name"

type blobFileStore struct {
	bucket  *blob.Bucket
	baseURL string
	newID   func() string
}

// NewBlobFileStore create a file store using a gocloud.dev/blob bucket.
// View URLs are rooted at baseURL, which may be empty for relative URLs.
func NewBlobFileStore(bucket *blob.Bucket, baseURL string) FileStore {
	return &blobFileStore{
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		newID:   uuid.NewString,
	}
}

func (s *blobFileStore) Upload(ctx context.Context, name string, data []byte) (*StoredFile, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("upload %q: empty file", name)
	}

	id := s.newID()
	contentType := mimetype.Detect(data).String()
	err := s.bucket.WriteAll(ctx, id, data, &blob.WriterOptions{
		ContentType: contentType,
		Metadata:    map[string]string{nameMetadataKey: name},
	})
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}

	return &StoredFile{
		ID:          id,
		URL:         s.ViewURL(id),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *blobFileStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete file: empty id: %w", ErrNotFound)
	}
	err := s.bucket.Delete(ctx, id)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return fmt.Errorf("delete file %q: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete file %q: %w", id, err)
	}
	return nil
}

func (s *blobFileStore) Open(ctx context.Context, id string) (*File, error) {
	attrs, err := s.bucket.Attributes(ctx, id)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("open file %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("open file %q: %w", id, err)
	}

	data, err := s.bucket.ReadAll(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", id, err)
	}

	return &File{
		StoredFile: StoredFile{
			ID:          id,
			URL:         s.ViewURL(id),
			Name:        attrs.Metadata[nameMetadataKey],
			ContentType: attrs.ContentType,
			Size:        attrs.Size,
		},
		Modified: attrs.ModTime,
		Data:     data,
	}, nil
}

func (s *blobFileStore) List(ctx context.Context) ([]string, error) {
	iter := s.bucket.List(nil)
	ids := make([]string, 0)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		if obj.IsDir {
			continue
		}
		ids = append(ids, obj.Key)
	}
	return ids, nil
}

func (s *blobFileStore) ViewURL(id string) string {
	return s.baseURL + "/files/" + url.PathEscape(id)
}
