package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/testutil"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestStagingCodec_Roundtrip(t *testing.T) {
	clock := testutil.NewFakeClock(epoch)
	c, err := NewStagingCodec("secret", clock)
	require.NoError(t, err)

	in := Payload{Flow: "registration", Email: "a@b.com", Code: 123456}
	tok, err := c.Sign(in, 30*time.Minute)
	require.NoError(t, err)

	out, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStagingCodec_Expired(t *testing.T) {
	clock := testutil.NewFakeClock(epoch)
	c, err := NewStagingCodec("secret", clock)
	require.NoError(t, err)

	tok, err := c.Sign(Payload{Email: "a@b.com"}, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)

	_, err = c.Verify(tok)
	require.ErrorIs(t, err, model.ErrExpired)
	assert.NotErrorIs(t, err, model.ErrInvalidSignature)
}

func TestStagingCodec_WrongSecret(t *testing.T) {
	clock := testutil.NewFakeClock(epoch)
	signer, err := NewStagingCodec("secret", clock)
	require.NoError(t, err)
	verifier, err := NewStagingCodec("other", clock)
	require.NoError(t, err)

	tok, err := signer.Sign(Payload{Email: "a@b.com"}, time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, model.ErrInvalidSignature)
	assert.NotErrorIs(t, err, model.ErrExpired)
}

func TestStagingCodec_WrongSecretAndExpired(t *testing.T) {
	clock := testutil.NewFakeClock(epoch)
	signer, err := NewStagingCodec("secret", clock)
	require.NoError(t, err)
	verifier, err := NewStagingCodec("other", clock)
	require.NoError(t, err)

	tok, err := signer.Sign(Payload{Email: "a@b.com"}, time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, model.ErrInvalidSignature)
}

func TestCodec_PurposeSeparation(t *testing.T) {
	clock := testutil.NewFakeClock(epoch)
	staging, err := NewStagingCodec("shared", clock)
	require.NoError(t, err)
	session, err := NewSessionCodec("shared", clock)
	require.NoError(t, err)

	tok, err := staging.Sign(Payload{Email: "a@b.com"}, time.Minute)
	require.NoError(t, err)

	_, err = session.Verify(tok)
	require.ErrorIs(t, err, model.ErrInvalidSignature)

	assert.Equal(t, PurposeStaging, staging.Purpose())
	assert.Equal(t, PurposeSession, session.Purpose())
}

func TestCodec_Tampered(t *testing.T) {
	c, err := NewSessionCodec("secret", testutil.NewFakeClock(epoch))
	require.NoError(t, err)

	tok, err := c.Sign(Payload{Type: "access_token", UserID: 7}, time.Hour)
	require.NoError(t, err)

	_, err = c.Verify(tok + "x")
	require.ErrorIs(t, err, model.ErrInvalidSignature)

	_, err = c.Verify("not-a-token")
	require.ErrorIs(t, err, model.ErrInvalidSignature)
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	clock := testutil.NewFakeClock(epoch)
	c, err := NewSessionCodec("secret", clock)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{string(PurposeSession)},
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
		Payload: Payload{Type: "access_token", UserID: 1},
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Verify(tok)
	require.ErrorIs(t, err, model.ErrInvalidSignature)
}

func TestCodec_UniqueTokens(t *testing.T) {
	c, err := NewStagingCodec("secret", testutil.NewFakeClock(epoch))
	require.NoError(t, err)

	a, err := c.Sign(Payload{Email: "a@b.com"}, time.Minute)
	require.NoError(t, err)
	b, err := c.Sign(Payload{Email: "a@b.com"}, time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewCodec_EmptySecret(t *testing.T) {
	_, err := NewStagingCodec("", nil)
	require.Error(t, err)

	_, err = NewSessionCodec("", nil)
	require.Error(t, err)
}
