package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"com.aviebrantz.studio-site/pkg/core/store/sessions"
	"github.com/apex/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
)

// Service authenticates the single studio administrator and manages
// their sessions. Tokens are HS256 JWTs whose jti is the session id, so
// deleting the session revokes the token.
type Service struct {
	store        sessions.SessionStore
	email        string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
	logger       *log.Entry
}

type Options struct {
	AdminEmail        string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
}

func NewService(store sessions.SessionStore, opts Options) *Service {
	return &Service{
		store:        store,
		email:        strings.ToLower(strings.TrimSpace(opts.AdminEmail)),
		passwordHash: []byte(opts.AdminPasswordHash),
		secret:       []byte(opts.SessionSecret),
		ttl:          opts.SessionTTL,
		now:          time.Now,
		logger:       log.WithField("module", "auth"),
	}
}

// HashPassword returns the bcrypt hash stored in config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Login checks the credentials and opens a session, returning its token.
func (s *Service) Login(ctx context.Context, email, password string, client sessions.ClientInfo) (string, *sessions.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != s.email {
		_ = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &sessions.Session{
		ID:      uuid.NewString(),
		Email:   email,
		Created: now,
		Expires: now.Add(s.ttl),
		Client:  client,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(session.Created),
			ExpiresAt: jwt.NewNumericDate(session.Expires),
		},
	}).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}

	s.logger.WithField("session", session.ID).Info("admin logged in")
	return token, session, nil
}

// Current returns the live session behind token, or ErrNoSession.
func (s *Service) Current(ctx context.Context, token string) (*sessions.Session, error) {
	id, err := s.sessionID(token)
	if err != nil {
		return nil, err
	}

	session, err := s.store.GetSessionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil || session.Expired(s.now()) {
		return nil, ErrNoSession
	}
	return session, nil
}

// Logout deletes the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	id, err := s.sessionID(token)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.WithField("session", id).Info("admin logged out")
	return nil
}

func (s *Service) sessionID(token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		s.logger.Debugf("rejecting session token: %v", err)
		return "", ErrNoSession
	}
	if parsed.ID == "" {
		return "", ErrNoSession
	}
	return parsed.ID, nil
}
