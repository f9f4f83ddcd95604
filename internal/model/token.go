package model

import "time"

const (
	// DefaultStagingTTL is how long an in-flight registration or recovery stays valid.
	DefaultStagingTTL = 30 * time.Minute
	// DefaultAccessTTL is the lifetime of an access token.
	DefaultAccessTTL = 3 * time.Hour
	// DefaultRefreshTTL is the lifetime of a refresh token.
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// TokenPair is returned on login.
type TokenPair struct {
	RefreshToken string
	AccessToken  string
}

// Clock is the time source used for token expiration.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
