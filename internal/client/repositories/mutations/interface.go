// Package mutations persists the ordered queue of pending mutation intents.
// Queue order is (priority ascending, enqueued_at ascending), so replay is
// deterministic and FIFO within a priority level.
package mutations

import (
	"context"

	"github.com/mkuznecovs/notesync/internal/client/models"
)

// MaxRetries is the retry ceiling: after this many failed upload attempts a
// mutation becomes terminally failed and is surfaced to the user instead of
// being retried silently.
const MaxRetries = 3

// Repository describes the durable mutation queue.
type Repository interface {
	// Enqueue validates the payload against the kind's schema, then appends
	// a new mutation with status=pending and retry count 0. Returns the new
	// mutation id. A storage failure here must not roll back the caller's
	// optimistic note write.
	Enqueue(ctx context.Context, owner string, kind models.Kind, payload any, priority int) (string, error)

	// ListPending returns pending mutations in queue order.
	ListPending(ctx context.Context, owner string) ([]models.Mutation, error)

	// Status transitions; each is a single atomic update of one entry.
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, cause string) error
	MarkRetry(ctx context.Context, id, cause string) error

	// IncrementRetry bumps the retry count and stamps the attempt time,
	// returning the new count so the caller can decide retry vs. failed.
	IncrementRetry(ctx context.Context, id string) (int, error)

	// PendingCount counts status=pending entries for UI badges.
	PendingCount(ctx context.Context, owner string) (int, error)

	// ClearCompleted bulk-removes completed entries. Called once per
	// successful sync pass, never during active processing.
	ClearCompleted(ctx context.Context, owner string) error

	// HasPendingFor reports whether a pending mutation of the given kind
	// already targets the note, so callers can skip redundant enqueues.
	HasPendingFor(ctx context.Context, owner, noteID string, kind models.Kind) (bool, error)

	// ReassignNoteID rewrites the note id inside every pending payload that
	// references oldID. Called once the remote service acknowledges a create
	// and assigns the canonical id, so queued follow-up mutations replay
	// against the right note.
	ReassignNoteID(ctx context.Context, owner, oldID, newID string) error
}
