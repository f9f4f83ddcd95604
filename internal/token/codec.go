package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kboni/auth-server/internal/model"
)

// Purpose binds a token to the flow it was minted for. It is carried in the
// audience claim and checked on every verification.
type Purpose string

const (
	PurposeStaging Purpose = "staging"
	PurposeSession Purpose = "session"
)

// Payload is the application data embedded in a signed token.
type Payload struct {
	Flow   string `json:"flow,omitempty"`
	Email  string `json:"email,omitempty"`
	Code   int    `json:"code,omitempty"`
	Type   string `json:"type,omitempty"`
	UserID int64  `json:"user_id,omitempty"`
}

// Claims represents JWT claims with the embedded payload.
type Claims struct {
	jwt.RegisteredClaims
	Payload
}

type codec struct {
	purpose Purpose
	secret  []byte
	clock   model.Clock
}

func newCodec(purpose Purpose, secret string, clock model.Clock) (codec, error) {
	if secret == "" {
		return codec{}, fmt.Errorf("empty %s secret", purpose)
	}
	if clock == nil {
		clock = model.SystemClock{}
	}
	return codec{purpose: purpose, secret: []byte(secret), clock: clock}, nil
}

// Sign creates a token carrying payload that expires ttl from now.
func (c codec) Sign(payload Payload, ttl time.Duration) (string, error) {
	now := c.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{string(c.purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Payload: payload,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", c.purpose, err)
	}

	return tokenString, nil
}

// Verify checks the signature, audience and expiration of tokenString and
// returns its payload. Failures wrap model.ErrExpired when only the
// expiration check failed and model.ErrInvalidSignature otherwise.
func (c codec) Verify(tokenString string) (Payload, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(c.purpose)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, fmt.Errorf("%w: %v", model.ErrExpired, err)
		}
		return Payload{}, fmt.Errorf("%w: %v", model.ErrInvalidSignature, err)
	}

	return claims.Payload, nil
}

// Purpose returns the purpose this codec signs for.
func (c codec) Purpose() Purpose {
	return c.purpose
}

// StagingCodec signs the tokens of registration and recovery flows.
type StagingCodec struct {
	codec
}

// NewStagingCodec creates a codec for staging tokens.
func NewStagingCodec(secret string, clock model.Clock) (*StagingCodec, error) {
	c, err := newCodec(PurposeStaging, secret, clock)
	if err != nil {
		return nil, err
	}
	return &StagingCodec{codec: c}, nil
}

// SessionCodec signs refresh and access tokens.
type SessionCodec struct {
	codec
}

// NewSessionCodec creates a codec for session tokens.
func NewSessionCodec(secret string, clock model.Clock) (*SessionCodec, error) {
	c, err := newCodec(PurposeSession, secret, clock)
	if err != nil {
		return nil, err
	}
	return &SessionCodec{codec: c}, nil
}
