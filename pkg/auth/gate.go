package auth

import (
	"context"
	"errors"

	"com.aviebrantz.studio-site/pkg/core/store/sessions"
)

// LoginFailedMessage is the only error text shown to operators.
const LoginFailedMessage = "Login failed. Please check your credentials and try again."

// Gate is the authenticated/unauthenticated state of one admin visitor.
type Gate struct {
	svc           *Service
	token         string
	session       *sessions.Session
	authenticated bool
	errMsg        string
}

func NewGate(svc *Service, token string) *Gate {
	return &Gate{svc: svc, token: token}
}

// Check looks up the current session. Any failure means unauthenticated.
func (g *Gate) Check(ctx context.Context) bool {
	session, err := g.svc.Current(ctx, g.token)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			g.svc.logger.Errorf("err checking session: %v", err)
		}
		g.session = nil
		g.authenticated = false
		return false
	}
	g.session = session
	g.authenticated = true
	return true
}

func (g *Gate) Login(ctx context.Context, email, password string, client sessions.ClientInfo) error {
	g.errMsg = ""
	token, session, err := g.svc.Login(ctx, email, password, client)
	if err != nil {
		g.svc.logger.Warnf("login failed: %v", err)
		g.errMsg = LoginFailedMessage
		g.authenticated = false
		return err
	}
	g.token = token
	g.session = session
	g.authenticated = true
	return nil
}

// Logout ends the session. On failure the gate stays authenticated.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.svc.Logout(ctx, g.token); err != nil {
		g.svc.logger.Errorf("err logging out: %v", err)
		return err
	}
	g.token = ""
	g.session = nil
	g.authenticated = false
	return nil
}

func (g *Gate) IsAuthenticated() bool { return g.authenticated }

func (g *Gate) Token() string { return g.token }

func (g *Gate) Session() *sessions.Session { return g.session }

// Error is the user-visible login error, empty when there is none.
func (g *Gate) Error() string { return g.errMsg }
