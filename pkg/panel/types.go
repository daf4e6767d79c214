package panel

import (
	"context"
	"errors"

	"com.aviebrantz.studio-site/pkg/core/store/files"
	"com.aviebrantz.studio-site/pkg/core/store/projects"
)

type Status string

const (
	StatusIdle         Status = "idle"
	StatusLoading      Status = "loading"
	StatusSaving       Status = "saving"
	StatusUploading    Status = "uploading"
	StatusDeleting     Status = "deleting"
	StatusImageLoading Status = "image-loading"
)

var (
	ErrBusy            = errors.New("another operation is in progress")
	ErrNoDraft         = errors.New("no draft project open")
	ErrDraftIncomplete = errors.New("draft needs a name, a description and an image")
	ErrNotImage        = errors.New("uploaded file is not an image")
	ErrNoImage         = errors.New("draft has no uploaded image")
)

// ProjectCollection is the slice of the project accessor the panel uses.
type ProjectCollection interface {
	Create(ctx context.Context, p projects.Project) (string, error)
	Get(ctx context.Context, id string) (projects.Project, error)
	List(ctx context.Context) ([]projects.Project, error)
	Remove(ctx context.Context, id string) error
}

type FileStore interface {
	Upload(ctx context.Context, name string, data []byte) (*files.StoredFile, error)
	Delete(ctx context.Context, id string) error
}

// OrphanReporter is told about stored files left behind by a failed
// project delete.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, fileID, projectID, reason string) error
}

// Draft is the in-progress project of the create form.
type Draft struct {
	Name        string `json:"project_name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	FileID      string `json:"file_id"`
}

// Snapshot is a copy of the panel state for rendering.
type Snapshot struct {
	Status   Status             `json:"status"`
	Projects []projects.Project `json:"projects"`
	Selected *projects.Project  `json:"selected,omitempty"`
	Creating bool               `json:"creating"`
	Draft    *Draft             `json:"draft,omitempty"`
}

// Busy reports whether a store call is in flight.
func (s Snapshot) Busy() bool {
	return s.Status != StatusIdle && s.Status != StatusImageLoading
}
