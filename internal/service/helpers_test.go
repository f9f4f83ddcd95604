package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kboni/auth-server/internal/mocks"
	"github.com/kboni/auth-server/internal/model"
	storage "github.com/kboni/auth-server/internal/storage/redis"
	"github.com/kboni/auth-server/internal/testutil"
	"github.com/kboni/auth-server/internal/token"
)

const (
	testEmail = "a@b.com"
	testCode  = 123456
)

var (
	epoch      = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testHasher = BcryptHasher{Cost: bcrypt.MinCost}
)

type flowFixture struct {
	clock   *testutil.FakeClock
	mr      *miniredis.Miniredis
	staging *storage.StagingStore
	codec   *token.StagingCodec
	users   *mocks.UserStore
	cfg     FlowConfig
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	clock := testutil.NewFakeClock(epoch)
	mr, client := testutil.NewRedis(t)
	codec, err := token.NewStagingCodec("registration-secret", clock)
	require.NoError(t, err)

	return &flowFixture{
		clock:   clock,
		mr:      mr,
		staging: storage.NewStagingStore(client, "staging"),
		codec:   codec,
		users:   mocks.NewUserStore(t),
		cfg: FlowConfig{
			TTL:  30 * time.Minute,
			Code: func() (int, error) { return testCode, nil },
		},
	}
}

func (f *flowFixture) staged(t *testing.T, email string) string {
	t.Helper()
	v, err := f.mr.Get("staging:" + email)
	require.NoError(t, err)
	return v
}

func requireRejected(t *testing.T, err, reason error) {
	t.Helper()
	require.ErrorIs(t, err, model.ErrRejected)
	require.ErrorIs(t, err, reason)
}
