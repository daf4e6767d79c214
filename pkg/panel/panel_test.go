package panel

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"com.aviebrantz.studio-site/pkg/core/store/collection"
	"com.aviebrantz.studio-site/pkg/core/store/files"
	"com.aviebrantz.studio-site/pkg/core/store/projects"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/docstore/memdocstore"
)

var errStore = errors.New("store unavailable")

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

// flakyFiles fails selected calls and otherwise defers to the real store.
type flakyFiles struct {
	files.FileStore
	uploadErr error
	deleteErr error
	release   chan struct{}
}

func (f *flakyFiles) Upload(ctx context.Context, name string, data []byte) (*files.StoredFile, error) {
	if f.release != nil {
		<-f.release
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.FileStore.Upload(ctx, name, data)
}

func (f *flakyFiles) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.FileStore.Delete(ctx, id)
}

type flakyProjects struct {
	*projects.ProjectCollection
	createErr error
}

func (f *flakyProjects) Create(ctx context.Context, p projects.Project) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.ProjectCollection.Create(ctx, p)
}

type orphanLog struct {
	mu      sync.Mutex
	fileIDs []string
}

func (o *orphanLog) ReportOrphan(ctx context.Context, fileID, projectID, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fileIDs = append(o.fileIDs, fileID)
	return nil
}

type fixture struct {
	panel    *Panel
	projects *flakyProjects
	files    *flakyFiles
	orphans  *orphanLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	coll, err := memdocstore.OpenCollection("id", nil)
	require.NoError(t, err)
	t.Cleanup(func() { coll.Close() })
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { bucket.Close() })

	f := &fixture{
		projects: &flakyProjects{ProjectCollection: projects.NewCollection(coll)},
		files:    &flakyFiles{FileStore: files.NewBlobFileStore(bucket, "https://studio.test")},
		orphans:  &orphanLog{},
	}
	f.panel = New(f.projects, f.files, f.orphans)
	return f
}

func (f *fixture) seed(t *testing.T, p projects.Project) string {
	t.Helper()
	id, err := f.projects.Create(context.Background(), p)
	require.NoError(t, err)
	return id
}

func (f *fixture) seedWithImage(t *testing.T, name string) projects.Project {
	t.Helper()
	stored, err := f.files.Upload(context.Background(), name+".png", pngBytes(t))
	require.NoError(t, err)
	p := projects.Project{Name: name, Description: "seeded", ImageURL: stored.URL, FileID: stored.ID}
	return p.WithID(f.seed(t, p))
}

func (f *fixture) storedFiles(t *testing.T) []string {
	t.Helper()
	ids, err := f.files.List(context.Background())
	require.NoError(t, err)
	return ids
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.seed(t, projects.Project{Name: "Lotus Villa", Description: "3BHK renovation"})
	second := f.seed(t, projects.Project{Name: "Loft", Description: "Studio flat"})

	require.NoError(t, f.panel.ListProjects(ctx))

	snap := f.panel.Snapshot()
	require.Equal(t, StatusIdle, snap.Status)
	ids := []string{}
	for _, p := range snap.Projects {
		ids = append(ids, p.ID)
	}
	require.ElementsMatch(t, []string{first, second}, ids)
}

func TestSelectProjectWaitsForImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	project := f.seedWithImage(t, "Courtyard")

	require.NoError(t, f.panel.SelectProject(ctx, project.ID))
	snap := f.panel.Snapshot()
	require.Equal(t, StatusImageLoading, snap.Status)
	require.False(t, snap.Busy())
	require.Equal(t, project, *snap.Selected)

	require.False(t, f.panel.ImageLoaded("some-other-project"))
	require.Equal(t, StatusImageLoading, f.panel.Status())

	require.True(t, f.panel.ImageLoaded(project.ID))
	require.Equal(t, StatusIdle, f.panel.Status())
	require.False(t, f.panel.ImageLoaded(project.ID))
}

func TestSelectProjectWithoutImageIsIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, projects.Project{Name: "Lotus Villa", Description: "3BHK renovation"})

	require.NoError(t, f.panel.SelectProject(ctx, id))
	require.Equal(t, StatusIdle, f.panel.Status())
	require.Equal(t, id, f.panel.Snapshot().Selected.ID)
}

func TestSelectMissingProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, projects.Project{Name: "Lotus Villa", Description: "3BHK renovation"})
	require.NoError(t, f.panel.SelectProject(ctx, id))

	err := f.panel.SelectProject(ctx, "missing")
	require.ErrorIs(t, err, collection.ErrNotFound)

	snap := f.panel.Snapshot()
	require.Equal(t, StatusIdle, snap.Status)
	require.Equal(t, id, snap.Selected.ID)
}

func TestNewDraftClearsSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, projects.Project{Name: "Lotus Villa", Description: "3BHK renovation"})
	require.NoError(t, f.panel.SelectProject(ctx, id))

	require.NoError(t, f.panel.NewDraft())
	snap := f.panel.Snapshot()
	require.Nil(t, snap.Selected)
	require.True(t, snap.Creating)
	require.Equal(t, &Draft{}, snap.Draft)
}

func TestUploadImageAttachesToDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.ErrorIs(t, f.panel.UploadImage(ctx, "a.png", pngBytes(t)), ErrNoDraft)

	require.NoError(t, f.panel.NewDraft())
	require.NoError(t, f.panel.UploadImage(ctx, "a.png", pngBytes(t)))

	draft := f.panel.Snapshot().Draft
	require.NotEmpty(t, draft.FileID)
	require.Equal(t, "https://studio.test/files/"+draft.FileID, draft.ImageURL)
	require.Equal(t, []string{draft.FileID}, f.storedFiles(t))
	require.Equal(t, StatusIdle, f.panel.Status())

	require.ErrorIs(t, f.panel.UploadImage(ctx, "b.png", pngBytes(t)), ErrImageAttached)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.panel.NewDraft())

	require.ErrorIs(t, f.panel.UploadImage(ctx, "notes.txt", []byte("just text")), ErrNotImage)
	require.Empty(t, f.storedFiles(t))
}

func TestUploadImageFailureLeavesDraftWithoutImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.files.uploadErr = errStore
	require.NoError(t, f.panel.NewDraft())

	require.ErrorIs(t, f.panel.UploadImage(ctx, "a.png", pngBytes(t)), errStore)

	snap := f.panel.Snapshot()
	require.Equal(t, StatusIdle, snap.Status)
	require.Empty(t, snap.Draft.FileID)
	require.Empty(t, snap.Draft.ImageURL)
}

func TestDiscardImageSuccessClearsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.panel.NewDraft())
	require.NoError(t, f.panel.UploadImage(ctx, "a.png", pngBytes(t)))
	fileID := f.panel.Snapshot().Draft.FileID

	require.NoError(t, f.panel.DiscardImage(ctx))

	draft := f.panel.Snapshot().Draft
	require.Empty(t, draft.ImageURL)
	require.Empty(t, draft.FileID)
	require.NotContains(t, f.storedFiles(t), fileID)
	require.Equal(t, StatusIdle, f.panel.Status())
}

func TestDiscardImageFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.panel.NewDraft())
	require.NoError(t, f.panel.UploadImage(ctx, "a.png", pngBytes(t)))
	before := *f.panel.Snapshot().Draft

	f.files.deleteErr = errStore
	require.ErrorIs(t, f.panel.DiscardImage(ctx), errStore)

	require.Equal(t, before, *f.panel.Snapshot().Draft)
	require.Equal(t, StatusIdle, f.panel.Status())
}

func TestDiscardImageWithoutUpload(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.panel.NewDraft())
	require.ErrorIs(t, f.panel.DiscardImage(context.Background()), ErrNoImage)
}

func TestSaveCreatesAndSelects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.panel.NewDraft())
	require.NoError(t, f.panel.UpdateDraft("Lotus Villa", "3BHK renovation"))

	require.ErrorIs(t, f.panel.Save(ctx), ErrDraftIncomplete)

	require.NoError(t, f.panel.UploadImage(ctx, "villa.png", pngBytes(t)))
	draft := *f.panel.Snapshot().Draft
	require.NoError(t, f.panel.Save(ctx))

	snap := f.panel.Snapshot()
	require.False(t, snap.Creating)
	require.Nil(t, snap.Draft)
	require.NotNil(t, snap.Selected)
	require.Equal(t, "Lotus Villa", snap.Selected.Name)
	require.Equal(t, "3BHK renovation", snap.Selected.Description)
	require.Equal(t, draft.ImageURL, snap.Selected.ImageURL)
	require.Equal(t, draft.FileID, snap.Selected.FileID)
	require.Equal(t, StatusImageLoading, snap.Status)
	require.Len(t, snap.Projects, 1)

	stored, err := f.projects.Get(ctx, snap.Selected.ID)
	require.NoError(t, err)
	require.Equal(t, *snap.Selected, stored)
}

func TestSaveFailureAddsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.projects.createErr = errStore
	require.NoError(t, f.panel.NewDraft())
	require.NoError(t, f.panel.UpdateDraft("Lotus Villa", "3BHK renovation"))
	require.NoError(t, f.panel.UploadImage(ctx, "villa.png", pngBytes(t)))

	require.ErrorIs(t, f.panel.Save(ctx), errStore)

	snap := f.panel.Snapshot()
	require.Equal(t, StatusIdle, snap.Status)
	require.True(t, snap.Creating)
	all, err := f.projects.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSaveWithoutDraft(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.panel.Save(context.Background()), ErrNoDraft)
	require.ErrorIs(t, f.panel.UpdateDraft("a", "b"), ErrNoDraft)
}

func TestDeleteProjectRemovesRecordAndFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doomed := f.seedWithImage(t, "Courtyard")
	kept := f.seedWithImage(t, "Loft")
	require.NoError(t, f.panel.SelectProject(ctx, doomed.ID))

	require.NoError(t, f.panel.DeleteProject(ctx, doomed.ID))

	snap := f.panel.Snapshot()
	require.Equal(t, StatusIdle, snap.Status)
	require.Nil(t, snap.Selected)
	require.Equal(t, []projects.Project{kept}, snap.Projects)
	require.Equal(t, []string{kept.FileID}, f.storedFiles(t))

	_, err := f.projects.Get(ctx, doomed.ID)
	require.ErrorIs(t, err, collection.ErrNotFound)
	require.Empty(t, f.orphans.fileIDs)
}

func TestDeleteProjectReportsOrphanedFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doomed := f.seedWithImage(t, "Courtyard")
	f.files.deleteErr = errStore

	require.NoError(t, f.panel.DeleteProject(ctx, doomed.ID))

	_, err := f.projects.Get(ctx, doomed.ID)
	require.ErrorIs(t, err, collection.ErrNotFound)
	require.Equal(t, []string{doomed.FileID}, f.orphans.fileIDs)
}

func TestDeleteMissingProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kept := f.seed(t, projects.Project{Name: "Lotus Villa", Description: "3BHK renovation"})

	require.ErrorIs(t, f.panel.DeleteProject(ctx, "missing"), collection.ErrNotFound)
	require.Equal(t, StatusIdle, f.panel.Status())

	_, err := f.projects.Get(ctx, kept)
	require.NoError(t, err)
}

func TestOperationsAreSingleFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.files.release = make(chan struct{})
	require.NoError(t, f.panel.NewDraft())

	data := pngBytes(t)
	done := make(chan error, 1)
	go func() { done <- f.panel.UploadImage(ctx, "a.png", data) }()

	require.Eventually(t, func() bool {
		return f.panel.Status() == StatusUploading
	}, time.Second, 5*time.Millisecond)
	require.True(t, f.panel.Snapshot().Busy())

	require.ErrorIs(t, f.panel.ListProjects(ctx), ErrBusy)
	require.ErrorIs(t, f.panel.SelectProject(ctx, "any"), ErrBusy)
	require.ErrorIs(t, f.panel.DeleteProject(ctx, "any"), ErrBusy)
	require.ErrorIs(t, f.panel.NewDraft(), ErrBusy)

	close(f.files.release)
	require.NoError(t, <-done)
	require.Equal(t, StatusIdle, f.panel.Status())
	require.NotEmpty(t, f.panel.Snapshot().Draft.FileID)
}

func TestRegistry(t *testing.T) {
	f := newFixture(t)
	reg := NewRegistry(func() *Panel { return New(f.projects, f.files, nil) })

	a, created := reg.Get("s1")
	require.True(t, created)
	again, created := reg.Get("s1")
	require.False(t, created)
	require.Same(t, a, again)

	b, _ := reg.Get("s2")
	require.NotSame(t, a, b)
	require.Equal(t, 2, reg.Len())

	reg.Drop("s1")
	require.Equal(t, 1, reg.Len())
	fresh, created := reg.Get("s1")
	require.True(t, created)
	require.NotSame(t, a, fresh)
}
