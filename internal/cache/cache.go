package cache

import (
	"context"
	"time"
)

// Store caches rendered payloads, primarily the dashboard snapshot JSON.
// A miss is (nil, false, nil); errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "autotrader:"

func namespaced(key string) string {
	return keyPrefix + key
}
