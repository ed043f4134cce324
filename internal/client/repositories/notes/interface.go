// Package notes persists the materialized note set, namespaced per owner.
// It is the only component the presentation layer reads from for rendering.
package notes

import (
	"context"

	"github.com/mkuznecovs/notesync/internal/client/models"
)

// Repository describes the Record Store. All operations are namespaced by
// owner; no call ever touches another owner's rows.
type Repository interface {
	// List returns all notes for an owner. It is read-only and returns an
	// empty slice when the owner has no notes.
	List(ctx context.Context, owner string) ([]models.Note, error)

	// Get returns a single note, or common.ErrNotFound.
	Get(ctx context.Context, owner, id string) (*models.Note, error)

	// Put upserts by id with overwrite semantics. Conflict resolution
	// happens upstream, before this is called.
	Put(ctx context.Context, owner string, note models.Note) error

	// PutAll upserts a batch inside one transaction. The caller passes an
	// already-resolved collection; this is not a merge.
	PutAll(ctx context.Context, owner string, notes []models.Note) error

	// Delete removes by id; a no-op when the note is absent.
	Delete(ctx context.Context, owner, id string) error

	// Rename swaps a note's id in place. Used once the remote service
	// acknowledges an offline create and assigns the canonical id.
	Rename(ctx context.Context, owner, oldID, newID string) error
}
