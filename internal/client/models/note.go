// Package models defines the client-side data model: materialized notes,
// queued mutations and the per-pass sync result.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SyncState tracks how a locally materialized note relates to the remote copy.
type SyncState string

const (
	SyncStateSynced   SyncState = "synced"
	SyncStatePending  SyncState = "pending"
	SyncStateConflict SyncState = "conflict"
)

// Note is a materialized user record. Exactly one note per (owner, id) pair
// exists in the local store at any time; updates replace in place.
type Note struct {
	// ID is an opaque string identifier. Notes created while disconnected
	// carry a temporary client-generated id (see NewLocalNoteID) until the
	// remote service assigns the canonical one.
	ID string

	Title      string
	Body       string
	Tag        string
	IsFavorite bool

	// UpdatedAt is the last modification time, monotonically non-decreasing
	// per note. Stored in UTC.
	UpdatedAt time.Time

	SyncState SyncState

	// LocalOnly is true for notes created offline and not yet acknowledged
	// by the remote service.
	LocalOnly bool
}

const localIDPrefix = "local-"

// NewLocalNoteID generates a temporary id for a note created offline.
// The timestamp keeps ids monotonic, the random suffix keeps rapid
// successive creates from colliding.
func NewLocalNoteID(now time.Time) string {
	return localIDPrefix + strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()[:8]
}

// IsLocalNoteID reports whether id is a temporary client-generated id that
// the remote service has never seen.
func IsLocalNoteID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}
