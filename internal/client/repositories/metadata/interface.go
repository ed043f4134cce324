// Package metadata persists small owner-scoped key/value state, such as the
// last successful sync time.
package metadata

import "context"

type Repository interface {
	// Get returns the stored value, or nil when the key is unset.
	Get(ctx context.Context, owner, key string) ([]byte, error)
	Set(ctx context.Context, owner, key string, value []byte) error
	Delete(ctx context.Context, owner, key string) error
}
