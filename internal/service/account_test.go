package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kboni/auth-server/internal/mocks"
	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/testutil"
)

func TestAccounts_ChangePassword(t *testing.T) {
	ctx := context.Background()
	hash, err := testHasher.Hash("old")
	require.NoError(t, err)
	alice := model.User{ID: 7, Username: "alice", PasswordHash: hash}

	t.Run("success", func(t *testing.T) {
		users := mocks.NewUserStore(t)
		users.On("UpdatePasswordHash", mock.Anything, int64(7), mock.MatchedBy(func(h string) bool {
			return testHasher.Verify(h, "new")
		})).Return(nil).Once()

		accounts := NewAccounts(users, testHasher, testutil.MakeNoopLogger())
		require.NoError(t, accounts.ChangePassword(ctx, alice, "old", "new"))
	})

	t.Run("wrong old password", func(t *testing.T) {
		users := mocks.NewUserStore(t)

		accounts := NewAccounts(users, testHasher, testutil.MakeNoopLogger())
		err := accounts.ChangePassword(ctx, alice, "guess", "new")
		requireRejected(t, err, model.ErrMismatch)
		users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store error", func(t *testing.T) {
		users := mocks.NewUserStore(t)
		users.On("UpdatePasswordHash", mock.Anything, int64(7), mock.Anything).Return(assert.AnError).Once()

		accounts := NewAccounts(users, testHasher, testutil.MakeNoopLogger())
		err := accounts.ChangePassword(ctx, alice, "old", "new")
		require.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, model.ErrRejected)
	})
}

func TestAccounts_Delete(t *testing.T) {
	ctx := context.Background()
	alice := model.User{ID: 7}

	users := mocks.NewUserStore(t)
	users.On("Delete", mock.Anything, int64(7)).Return(nil).Once()
	users.On("Delete", mock.Anything, int64(8)).Return(model.ErrNotFound).Once()

	accounts := NewAccounts(users, testHasher, testutil.MakeNoopLogger())
	require.NoError(t, accounts.Delete(ctx, alice))

	err := accounts.Delete(ctx, model.User{ID: 8})
	requireRejected(t, err, model.ErrNotFound)
}
