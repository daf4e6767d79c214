package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"com.aviebrantz.studio-site/pkg/config"
	"com.aviebrantz.studio-site/pkg/core/store/contacts"
	"com.aviebrantz.studio-site/pkg/core/store/files"
	"com.aviebrantz.studio-site/pkg/core/store/projects"
	"com.aviebrantz.studio-site/pkg/core/store/sessions"
	"github.com/apex/log"
	bolt "go.etcd.io/bbolt"
	"gocloud.dev/blob"
	"gocloud.dev/docstore"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/docstore/memdocstore"
	_ "gocloud.dev/docstore/mongodocstore"
)

// Client is the connection to the hosted stores. It is built once at
// startup and passed to whoever needs store access.
type Client struct {
	Projects *projects.ProjectCollection
	Contacts *contacts.ContactCollection
	Files    files.FileStore
	Sessions sessions.SessionStore

	closers []func() error
}

// Handles are already-open store handles, used by New.
type Handles struct {
	Projects  *docstore.Collection
	Contacts  *docstore.Collection
	Bucket    *blob.Bucket
	Sessions  sessions.SessionStore
	PublicURL string
}

// New assembles a client from open handles. Close closes the handles.
func New(h Handles) *Client {
	c := &Client{
		Projects: projects.NewCollection(h.Projects),
		Contacts: contacts.NewCollection(h.Contacts),
		Files:    files.NewBlobFileStore(h.Bucket, h.PublicURL),
		Sessions: h.Sessions,
	}
	c.closers = append(c.closers, h.Projects.Close, h.Contacts.Close, h.Bucket.Close)
	return c
}

// CollectionURL maps a collection id onto a docstore URL for the
// configured driver.
func CollectionURL(cfg config.BackendConfig, collectionID string) string {
	switch cfg.Driver {
	case config.DriverMongo:
		return fmt.Sprintf("mongo://%s/%s?id_field=id", cfg.DatabaseID, collectionID)
	default:
		return fmt.Sprintf("mem://%s/id", collectionID)
	}
}

// Open connects to every store named in cfg.
func Open(ctx context.Context, cfg *config.PlatformConfig) (*Client, error) {
	logger := log.WithField("module", "backend")
	backendCfg := cfg.BackendConfig

	if backendCfg.Driver == config.DriverMongo {
		os.Setenv("MONGO_SERVER_URL", backendCfg.Endpoint)
	}

	var opened []func() error
	fail := func(err error) (*Client, error) {
		for i := len(opened) - 1; i >= 0; i-- {
			if cerr := opened[i](); cerr != nil {
				logger.Warnf("err closing after failed open: %v", cerr)
			}
		}
		return nil, err
	}

	projectsColl, err := docstore.OpenCollection(ctx, CollectionURL(backendCfg, backendCfg.ProjectsCollectionID))
	if err != nil {
		return fail(fmt.Errorf("could not open projects collection: %w", err))
	}
	opened = append(opened, projectsColl.Close)

	contactsColl, err := docstore.OpenCollection(ctx, CollectionURL(backendCfg, backendCfg.ContactsCollectionID))
	if err != nil {
		return fail(fmt.Errorf("could not open contacts collection: %w", err))
	}
	opened = append(opened, contactsColl.Close)

	bucket, err := blob.OpenBucket(ctx, backendCfg.BucketURL)
	if err != nil {
		return fail(fmt.Errorf("could not open bucket: %w", err))
	}
	opened = append(opened, bucket.Close)

	sessionStore, closeSessions, err := openSessions(ctx, cfg.SessionsConfig)
	if err != nil {
		return fail(err)
	}

	client := New(Handles{
		Projects:  projectsColl,
		Contacts:  contactsColl,
		Bucket:    bucket,
		Sessions:  sessionStore,
		PublicURL: cfg.APIServerConfig.PublicURL,
	})
	client.closers = append(client.closers, closeSessions)

	logger.WithFields(log.Fields{
		"driver":   backendCfg.Driver,
		"projects": backendCfg.ProjectsCollectionID,
		"contacts": backendCfg.ContactsCollectionID,
		"sessions": cfg.SessionsConfig.Type,
	}).Info("backend connected")
	return client, nil
}

func openSessions(ctx context.Context, cfg config.SessionsConfig) (sessions.SessionStore, func() error, error) {
	switch cfg.Type {
	case config.SessionsDocstore:
		coll, err := docstore.OpenCollection(ctx, cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sessions collection: %w", err)
		}
		return sessions.NewSessionDocStore(coll), coll.Close, nil
	default:
		db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sessions db %s: %w", cfg.Path, err)
		}
		return sessions.NewSessionLocalStore(db), db.Close, nil
	}
}

// SeedContact stores contact when the contacts collection is still empty.
func (c *Client) SeedContact(ctx context.Context, contact contacts.Contact) (bool, error) {
	existing, err := c.Contacts.List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := c.Contacts.Create(ctx, contact); err != nil {
		return false, err
	}
	return true, nil
}

// Close closes every store handle.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
