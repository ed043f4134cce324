// Package remote defines the gateway to the authoritative note service and
// its HTTP implementation. The sync orchestrator is the only caller.
package remote

import (
	"context"
	"time"
)

// RemoteNote is a note as the remote service represents it.
type RemoteNote struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tag        string    `json:"tag"`
	IsFavorite bool      `json:"isFavorite"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Gateway is the remote service boundary. Update and Delete treat a remote
// 404 as success-equivalent: the server no longer has the note, so local
// state converges instead of erroring.
type Gateway interface {
	List(ctx context.Context, owner string) ([]RemoteNote, error)
	Create(ctx context.Context, title, body, tag string) (RemoteNote, error)
	Update(ctx context.Context, id, title, body, tag string) error
	Delete(ctx context.Context, id string) error

	// Ping probes service reachability; used by the online-status watcher.
	Ping(ctx context.Context) error
}
