package model

import (
	"context"
	"time"
)

// StagingStore keeps at most one in-flight token per e-mail. Entries vanish
// on their own once their TTL passes.
type StagingStore interface {
	Put(ctx context.Context, email, token string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}
