package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/jeremywohl/flatten"
	"github.com/nqd/flat"
	bolt "go.etcd.io/bbolt"
)

// sessionLocalStore saves sessions locally on filesystem
type sessionLocalStore struct {
	db *bolt.DB
}

const sessionBucketPrefix = "session_"

func NewSessionLocalStore(db *bolt.DB) SessionStore {
	return &sessionLocalStore{
		db: db,
	}
}

func (s *sessionLocalStore) CreateSession(ctx context.Context, session *Session) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}

	data := map[string]interface{}{
		"id":      session.ID,
		"email":   session.Email,
		"created": session.Created.UTC().Format(time.RFC3339Nano),
		"expires": session.Expires.UTC().Format(time.RFC3339Nano),
		"client": map[string]interface{}{
			"userAgent":  session.Client.UserAgent,
			"remoteAddr": session.Client.RemoteAddr,
		},
	}
	flattenData, err := flatten.Flatten(data, "", flatten.PathStyle)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(true)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf("err rollback : %v", rbErr)
			}
		}
	}()

	buck, err := tx.CreateBucket([]byte(sessionBucketPrefix + session.ID))
	if err != nil {
		return fmt.Errorf("create session %q: %w", session.ID, err)
	}

	for k, v := range flattenData {
		value := fmt.Sprintf("%v", v)
		err = buck.Put([]byte(k), []byte(value))
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

func (s *sessionLocalStore) GetSessionByID(ctx context.Context, id string) (*Session, error) {
	session := &Session{}
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket([]byte(sessionBucketPrefix + id))
		if buck == nil {
			session = nil
			return nil
		}

		data := make(map[string]interface{})
		cur := buck.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			data[string(k)] = string(v)
		}

		nestedData, err := flat.Unflatten(data, &flat.Options{
			Delimiter: "/",
		})
		if err != nil {
			return err
		}

		return decodeSession(nestedData, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionLocalStore) DeleteSession(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(sessionBucketPrefix + id))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

func decodeSession(data map[string]interface{}, session *Session) error {
	str := func(m map[string]interface{}, key string) string {
		if value, ok := m[key].(string); ok {
			return value
		}
		return ""
	}

	var err error
	session.ID = str(data, "id")
	session.Email = str(data, "email")
	if session.Created, err = time.Parse(time.RFC3339Nano, str(data, "created")); err != nil {
		return fmt.Errorf("session %q created: %w", session.ID, err)
	}
	if session.Expires, err = time.Parse(time.RFC3339Nano, str(data, "expires")); err != nil {
		return fmt.Errorf("session %q expires: %w", session.ID, err)
	}
	if client, ok := data["client"].(map[string]interface{}); ok {
		session.Client.UserAgent = str(client, "userAgent")
		session.Client.RemoteAddr = str(client, "remoteAddr")
	}
	return nil
}
