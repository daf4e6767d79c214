package projects

import (
	"fmt"
	"strings"

	"com.aviebrantz.studio-site/pkg/core/store/collection"
	"gocloud.dev/docstore"
)

// Project is a portfolio entry. FileID names the stored image, if any.
type Project struct {
	ID          string `json:"id" docstore:"id"`
	Name        string `json:"project_name" docstore:"project_name"`
	Description string `json:"description" docstore:"description"`
	ImageURL    string `json:"image_url" docstore:"image_url"`
	FileID      string `json:"file_id,omitempty" docstore:"file_id"`
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: project name is required", collection.ErrInvalidRecord)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: project description is required", collection.ErrInvalidRecord)
	}
	if p.FileID != "" && p.ImageURL == "" {
		return fmt.Errorf("%w: file %q has no image url", collection.ErrInvalidRecord, p.FileID)
	}
	return nil
}

func (p Project) WithID(id string) Project {
	p.ID = id
	return p
}

// HasImage reports whether the project points at an image.
func (p Project) HasImage() bool {
	return p.ImageURL != ""
}

type ProjectCollection = collection.Accessor[Project]

// NewCollection create a project accessor using a gocloud.dev/docstore collection
func NewCollection(coll *docstore.Collection) *ProjectCollection {
	return collection.NewAccessor[Project]("projects", coll)
}
