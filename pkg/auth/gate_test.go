package auth

import (
	"context"
	"testing"

	"com.aviebrantz.studio-site/pkg/core/store/sessions"
	"github.com/stretchr/testify/require"
)

func TestGateWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	gate := NewGate(svc, "")
	require.False(t, gate.Check(ctx))

	err := gate.Login(ctx, testEmail, "wrong", sessions.ClientInfo{})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.False(t, gate.IsAuthenticated())
	require.Equal(t, LoginFailedMessage, gate.Error())
	require.Empty(t, gate.Token())
}

func TestGateLoginThenLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	gate := NewGate(svc, "")
	require.Error(t, gate.Login(ctx, testEmail, "wrong", sessions.ClientInfo{}))
	require.NoError(t, gate.Login(ctx, testEmail, testPassword, sessions.ClientInfo{}))
	require.True(t, gate.IsAuthenticated())
	require.Empty(t, gate.Error())
	require.NotNil(t, gate.Session())

	// a later request carrying the token sees the same session
	next := NewGate(svc, gate.Token())
	require.True(t, next.Check(ctx))
	require.Equal(t, gate.Session().ID, next.Session().ID)

	require.NoError(t, next.Logout(ctx))
	require.False(t, next.IsAuthenticated())
	require.False(t, NewGate(svc, gate.Token()).Check(ctx))
}
