package panel

import (
	"context"
	"errors"
	"strings"
	"sync"

	"com.aviebrantz.studio-site/pkg/core/store/files"
	"com.aviebrantz.studio-site/pkg/core/store/projects"
	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"
)

var ErrImageAttached = errors.New("draft already has an image")

// Panel is the admin project editor of one operator. One operation runs
// at a time; a second one started meanwhile fails with ErrBusy.
// Failures are logged, leave the status idle and are also returned.
type Panel struct {
	projects ProjectCollection
	files    FileStore
	orphans  OrphanReporter
	logger   *log.Entry

	mu       sync.Mutex
	status   Status
	list     []projects.Project
	selected *projects.Project
	creating bool
	draft    Draft
}

// New builds a panel. orphans may be nil, in which case files left
// behind by a failed delete are only logged.
func New(projectColl ProjectCollection, fileStore FileStore, orphans OrphanReporter) *Panel {
	return &Panel{
		projects: projectColl,
		files:    fileStore,
		orphans:  orphans,
		logger:   log.WithField("module", "admin-panel"),
		status:   StatusIdle,
		list:     make([]projects.Project, 0),
	}
}

func (p *Panel) begin(next Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusIdle && p.status != StatusImageLoading {
		return ErrBusy
	}
	p.status = next
	return nil
}

func (p *Panel) finish(next Status) {
	p.mu.Lock()
	p.status = next
	p.mu.Unlock()
}

func (p *Panel) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// ListProjects reloads the sidebar: idle -> loading -> idle.
func (p *Panel) ListProjects(ctx context.Context) error {
	if err := p.begin(StatusLoading); err != nil {
		return err
	}
	defer p.finish(StatusIdle)

	return p.refresh(ctx)
}

func (p *Panel) refresh(ctx context.Context) error {
	list, err := p.projects.List(ctx)
	if err != nil {
		p.logger.Errorf("err fetching projects: %v", err)
		return err
	}
	p.mu.Lock()
	p.list = list
	p.mu.Unlock()
	return nil
}

// SelectProject shows one project: idle -> loading -> image-loading.
// The panel stays in image-loading until ImageLoaded is called for the
// same project; projects without an image go straight back to idle.
func (p *Panel) SelectProject(ctx context.Context, id string) error {
	if err := p.begin(StatusLoading); err != nil {
		return err
	}
	p.mu.Lock()
	p.creating = false
	p.mu.Unlock()

	project, err := p.projects.Get(ctx, id)
	if err != nil {
		p.logger.Errorf("err fetching project details: %v", err)
		p.finish(StatusIdle)
		return err
	}

	p.showSelected(project)
	return nil
}

func (p *Panel) showSelected(project projects.Project) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = &project
	if project.HasImage() {
		p.status = StatusImageLoading
	} else {
		p.status = StatusIdle
	}
}

// ImageLoaded is the completion event of the selected project's image.
// Events for any other project are ignored.
func (p *Panel) ImageLoaded(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusImageLoading || p.selected == nil || p.selected.ID != id {
		return false
	}
	p.status = StatusIdle
	return true
}

// NewDraft clears the selection and opens a blank create form.
func (p *Panel) NewDraft() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusIdle && p.status != StatusImageLoading {
		return ErrBusy
	}
	p.status = StatusIdle
	p.creating = true
	p.selected = nil
	p.draft = Draft{}
	return nil
}

// UpdateDraft sets the text fields of the open draft.
func (p *Panel) UpdateDraft(name, description string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.creating {
		return ErrNoDraft
	}
	p.draft.Name = name
	p.draft.Description = description
	return nil
}

// UploadImage stores data and attaches it to the draft:
// idle -> uploading -> idle.
func (p *Panel) UploadImage(ctx context.Context, name string, data []byte) error {
	p.mu.Lock()
	creating, attached := p.creating, p.draft.FileID != ""
	p.mu.Unlock()
	if !creating {
		return ErrNoDraft
	}
	if attached {
		return ErrImageAttached
	}
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		p.logger.Warnf("rejecting upload %q: not an image", name)
		return ErrNotImage
	}

	if err := p.begin(StatusUploading); err != nil {
		return err
	}
	defer p.finish(StatusIdle)

	stored, err := p.files.Upload(ctx, name, data)
	if err != nil {
		p.logger.Errorf("err uploading file: %v", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.creating {
		// the draft was closed meanwhile
		p.reportOrphan(ctx, stored.ID, "", "draft closed during upload")
		return ErrNoDraft
	}
	p.draft.ImageURL = stored.URL
	p.draft.FileID = stored.ID
	return nil
}

// DiscardImage deletes the draft's stored image. The draft keeps its
// image fields unless the store confirms the delete.
func (p *Panel) DiscardImage(ctx context.Context) error {
	p.mu.Lock()
	creating, fileID := p.creating, p.draft.FileID
	p.mu.Unlock()
	if !creating {
		return ErrNoDraft
	}
	if fileID == "" {
		return ErrNoImage
	}

	if err := p.begin(StatusDeleting); err != nil {
		return err
	}
	defer p.finish(StatusIdle)

	if err := p.files.Delete(ctx, fileID); err != nil {
		p.logger.Errorf("err deleting upload: %v", err)
		return err
	}

	p.mu.Lock()
	if p.draft.FileID == fileID {
		p.draft.ImageURL = ""
		p.draft.FileID = ""
	}
	p.mu.Unlock()
	return nil
}

// Save creates a project from the draft, then re-reads and selects it.
func (p *Panel) Save(ctx context.Context) error {
	p.mu.Lock()
	creating, draft := p.creating, p.draft
	p.mu.Unlock()
	if !creating {
		return ErrNoDraft
	}
	if strings.TrimSpace(draft.Name) == "" ||
		strings.TrimSpace(draft.Description) == "" ||
		draft.ImageURL == "" {
		return ErrDraftIncomplete
	}

	if err := p.begin(StatusSaving); err != nil {
		return err
	}

	id, err := p.projects.Create(ctx, projects.Project{
		Name:        draft.Name,
		Description: draft.Description,
		ImageURL:    draft.ImageURL,
		FileID:      draft.FileID,
	})
	if err != nil {
		p.logger.Errorf("err saving project: %v", err)
		p.finish(StatusIdle)
		return err
	}
	p.logger.WithField("project", id).Info("project created")

	p.mu.Lock()
	p.creating = false
	p.draft = Draft{}
	p.mu.Unlock()

	if err := p.refresh(ctx); err != nil {
		p.finish(StatusIdle)
		return err
	}

	created, err := p.projects.Get(ctx, id)
	if err != nil {
		p.logger.Errorf("err fetching created project: %v", err)
		p.finish(StatusIdle)
		return err
	}
	p.showSelected(created)
	return nil
}

// DeleteProject deletes the project's stored image, then the project,
// then reloads the list and clears the selection. A failed image delete
// does not stop the project delete; the file is handed to the orphan
// reporter instead.
func (p *Panel) DeleteProject(ctx context.Context, id string) error {
	if err := p.begin(StatusDeleting); err != nil {
		return err
	}
	defer p.finish(StatusIdle)

	project, err := p.projects.Get(ctx, id)
	if err != nil {
		p.logger.Errorf("err deleting project: %v", err)
		return err
	}

	if project.FileID != "" {
		err := p.files.Delete(ctx, project.FileID)
		if err != nil && !errors.Is(err, files.ErrNotFound) {
			p.logger.Errorf("Error while deleting uploaded file: %v", err)
			p.reportOrphan(ctx, project.FileID, project.ID, err.Error())
		}
	}

	if err := p.projects.Remove(ctx, id); err != nil {
		p.logger.Errorf("err deleting project: %v", err)
		return err
	}
	p.logger.WithField("project", id).Info("project deleted")

	refreshErr := p.refresh(ctx)

	p.mu.Lock()
	p.selected = nil
	p.mu.Unlock()
	return refreshErr
}

func (p *Panel) reportOrphan(ctx context.Context, fileID, projectID, reason string) {
	if p.orphans == nil {
		p.logger.Warnf("file %q left without project", fileID)
		return
	}
	if err := p.orphans.ReportOrphan(ctx, fileID, projectID, reason); err != nil {
		p.logger.Errorf("err reporting orphaned file %q: %v", fileID, err)
	}
}

func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Status:   p.status,
		Projects: make([]projects.Project, len(p.list)),
		Creating: p.creating,
	}
	copy(snap.Projects, p.list)
	if p.selected != nil {
		selected := *p.selected
		snap.Selected = &selected
	}
	if p.creating {
		draft := p.draft
		snap.Draft = &draft
	}
	return snap
}
