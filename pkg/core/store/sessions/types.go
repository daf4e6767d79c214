package sessions

import (
	"context"
	"time"
)

type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	// GetSessionByID returns nil, nil when the session does not exist.
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type Session struct {
	ID      string     `json:"id" docstore:"id"`
	Email   string     `json:"email" docstore:"email"`
	Created time.Time  `json:"created" docstore:"created"`
	Expires time.Time  `json:"expires" docstore:"expires"`
	Client  ClientInfo `json:"client" docstore:"client"`
}

// ClientInfo records where a session was opened from.
type ClientInfo struct {
	UserAgent  string `json:"userAgent" docstore:"userAgent"`
	RemoteAddr string `json:"remoteAddr" docstore:"remoteAddr"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
