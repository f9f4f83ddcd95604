package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kboni/auth-server/internal/model"
)

func TestManager_UserRoundTrip(t *testing.T) {
	m := NewManager()
	user := model.User{ID: 7, Username: "alice"}

	ctx := m.SetUserToContext(context.Background(), user)

	got, ok := m.GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestManager_NoUser(t *testing.T) {
	m := NewManager()

	_, ok := m.GetUserFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), userKey{}, "not a user")
	_, ok = m.GetUserFromContext(ctx)
	assert.False(t, ok)
}
