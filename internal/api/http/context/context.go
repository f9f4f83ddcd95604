package context

import (
	"context"

	"github.com/kboni/auth-server/internal/model"
)

type userKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager represents a request context manager for the authenticated user.
type Manager struct{}

// NewManager creates a new context manager instance.
//
// Returns a pointer to the newly created Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetUserToContext stores the user in the request context.
//
// Parameters:
//   - ctx: The request context
//   - user: The authenticated user
//
// Returns a new context carrying the user.
func (m *Manager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUserFromContext retrieves the user stored by SetUserToContext.
//
// Parameters:
//   - ctx: The request context
//
// Returns the user and a boolean indicating if a user was found.
func (m *Manager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey{}).(model.User)
	return user, ok
}
