package sessions

import (
	"context"

	"gocloud.dev/docstore"
	"gocloud.dev/gcerrors"
)

type sessionDocStore struct {
	coll *docstore.Collection
}

// NewSessionDocStore create a session store using a gocloud.dev/docstore collection
// keyed by "id".
func NewSessionDocStore(coll *docstore.Collection) SessionStore {
	return &sessionDocStore{
		coll: coll,
	}
}

func (s *sessionDocStore) CreateSession(ctx context.Context, session *Session) error {
	doc := *session
	return s.coll.Create(ctx, &doc)
}

func (s *sessionDocStore) GetSessionByID(ctx context.Context, id string) (*Session, error) {
	session := &Session{ID: id}
	err := s.coll.Get(ctx, session)
	if err != nil {
		code := gcerrors.Code(err)
		if code == gcerrors.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionDocStore) DeleteSession(ctx context.Context, id string) error {
	err := s.coll.Delete(ctx, &Session{ID: id})
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}
