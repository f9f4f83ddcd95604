package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kboni/auth-server/internal/mocks"
	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/testutil"
	"github.com/kboni/auth-server/internal/token"
)

type sessionFixture struct {
	clock    *testutil.FakeClock
	codec    *token.SessionCodec
	users    *mocks.UserStore
	sessions *Sessions
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	clock := testutil.NewFakeClock(epoch)
	codec, err := token.NewSessionCodec("session-secret", clock)
	require.NoError(t, err)
	users := mocks.NewUserStore(t)

	return &sessionFixture{
		clock:    clock,
		codec:    codec,
		users:    users,
		sessions: NewSessions(codec, users, testHasher, SessionConfig{}, testutil.MakeNoopLogger()),
	}
}

func TestSessions_IssueAccess(t *testing.T) {
	f := newSessionFixture(t)

	refresh, err := f.sessions.IssueRefresh(model.User{ID: 7})
	require.NoError(t, err)

	access, err := f.sessions.IssueAccess(refresh)
	require.NoError(t, err)

	payload, err := f.codec.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, payload.Type)
	assert.Equal(t, int64(7), payload.UserID)
}

func TestSessions_IssueAccess_Rejections(t *testing.T) {
	f := newSessionFixture(t)

	foreign, err := token.NewSessionCodec("another-secret", f.clock)
	require.NoError(t, err)
	foreignRefresh, err := foreign.Sign(token.Payload{Type: TokenTypeRefresh, UserID: 7}, time.Hour)
	require.NoError(t, err)

	staging, err := token.NewStagingCodec("session-secret", f.clock)
	require.NoError(t, err)
	stagingToken, err := staging.Sign(token.Payload{Type: TokenTypeRefresh, UserID: 7}, time.Hour)
	require.NoError(t, err)

	access, err := f.codec.Sign(token.Payload{Type: TokenTypeAccess, UserID: 7}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		reason error
	}{
		{name: "other secret", token: foreignRefresh, reason: model.ErrInvalidSignature},
		{name: "staging token", token: stagingToken, reason: model.ErrInvalidSignature},
		{name: "access token", token: access, reason: model.ErrMismatch},
		{name: "garbage", token: "garbage", reason: model.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sessions.IssueAccess(tt.token)
			requireRejected(t, err, tt.reason)
		})
	}
}

func TestSessions_IssueAccess_ExpiredRefresh(t *testing.T) {
	f := newSessionFixture(t)

	refresh, err := f.sessions.IssueRefresh(model.User{ID: 7})
	require.NoError(t, err)

	f.clock.Advance(model.DefaultRefreshTTL + time.Second)

	_, err = f.sessions.IssueAccess(refresh)
	requireRejected(t, err, model.ErrExpired)
}

func TestSessions_VerifySession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	alice := model.User{ID: 7, Username: "alice"}

	f.users.On("GetByID", mock.Anything, int64(7)).Return(alice, nil).Once()

	refresh, err := f.sessions.IssueRefresh(alice)
	require.NoError(t, err)
	access, err := f.sessions.IssueAccess(refresh)
	require.NoError(t, err)

	got, err := f.sessions.VerifySession(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = f.sessions.VerifySession(ctx, refresh)
	requireRejected(t, err, model.ErrMismatch)

	f.clock.Advance(model.DefaultAccessTTL + time.Second)
	_, err = f.sessions.VerifySession(ctx, access)
	requireRejected(t, err, model.ErrExpired)
}

func TestSessions_VerifySession_UserGone(t *testing.T) {
	f := newSessionFixture(t)

	f.users.On("GetByID", mock.Anything, int64(7)).Return(model.User{}, model.ErrNotFound).Once()

	access, err := f.codec.Sign(token.Payload{Type: TokenTypeAccess, UserID: 7}, time.Hour)
	require.NoError(t, err)

	_, err = f.sessions.VerifySession(context.Background(), access)
	requireRejected(t, err, model.ErrNotFound)
}

func TestSessions_VerifySession_StoreError(t *testing.T) {
	f := newSessionFixture(t)

	f.users.On("GetByID", mock.Anything, int64(7)).Return(model.User{}, assert.AnError).Once()

	access, err := f.codec.Sign(token.Payload{Type: TokenTypeAccess, UserID: 7}, time.Hour)
	require.NoError(t, err)

	_, err = f.sessions.VerifySession(context.Background(), access)
	require.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, model.ErrRejected)
}

func TestSessions_CheckCredentials(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	hash, err := testHasher.Hash("pw")
	require.NoError(t, err)
	alice := model.User{ID: 7, Username: "alice", PasswordHash: hash}

	f.users.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
	f.users.On("GetByUsername", mock.Anything, "bob").Return(model.User{}, model.ErrNotFound)

	got, err := f.sessions.CheckCredentials(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = f.sessions.CheckCredentials(ctx, "alice", "wrong")
	requireRejected(t, err, model.ErrMismatch)

	_, err = f.sessions.CheckCredentials(ctx, "bob", "pw")
	requireRejected(t, err, model.ErrNotFound)
}

func TestSessions_Login(t *testing.T) {
	f := newSessionFixture(t)

	hash, err := testHasher.Hash("pw")
	require.NoError(t, err)
	f.users.On("GetByUsername", mock.Anything, "alice").Return(model.User{ID: 7, Username: "alice", PasswordHash: hash}, nil).Once()

	pair, err := f.sessions.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	refresh, err := f.codec.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.Type)
	assert.Equal(t, int64(7), refresh.UserID)

	access, err := f.codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.Type)
	assert.Equal(t, int64(7), access.UserID)
}
