package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a mutation intent.
type Kind string

const (
	KindCreateNote Kind = "CREATE_NOTE"
	KindUpdateNote Kind = "UPDATE_NOTE"
	KindDeleteNote Kind = "DELETE_NOTE"
)

// MutationStatus is the mutation state machine:
// pending -> processing -> {completed | pending (retry) | failed}.
type MutationStatus string

const (
	MutationPending    MutationStatus = "pending"
	MutationProcessing MutationStatus = "processing"
	MutationCompleted  MutationStatus = "completed"
	MutationFailed     MutationStatus = "failed"
)

// Priority levels; lower value is served first.
const (
	PriorityHigh   = 1
	PriorityNormal = 2
	PriorityLow    = 3
)

// Mutation is a durable intent to change remote state. Only Status,
// RetryCount, LastAttemptAt and LastError are ever updated after enqueue;
// everything else is immutable.
type Mutation struct {
	ID         string
	Owner      string
	Kind       Kind
	Payload    []byte // kind-specific JSON, see the *Payload types
	Priority   int
	EnqueuedAt time.Time

	Status        MutationStatus
	RetryCount    int
	LastAttemptAt *time.Time
	LastError     string
}

// CreatePayload replays an offline note creation. NoteID holds the temporary
// client id that the sync pass swaps for the server-assigned one.
type CreatePayload struct {
	NoteID     string `json:"noteId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Tag        string `json:"tag"`
	IsFavorite bool   `json:"isFavorite"`
}

// UpdatePayload replays a note update as a full field snapshot.
type UpdatePayload struct {
	NoteID     string `json:"noteId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Tag        string `json:"tag"`
	IsFavorite bool   `json:"isFavorite"`
}

// DeletePayload replays a note deletion.
type DeletePayload struct {
	NoteID string `json:"noteId"`
}

// DecodePayload unmarshals the payload into the variant matching Kind.
func (m *Mutation) DecodePayload() (any, error) {
	switch m.Kind {
	case KindCreateNote:
		var p CreatePayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindUpdateNote:
		var p UpdatePayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindDeleteNote:
		var p DeletePayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}

// NewMutationID builds a globally unique mutation id. The random suffix
// keeps ids distinct under rapid succession within one millisecond.
func NewMutationID(kind Kind, now time.Time) string {
	return string(kind) + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + uuid.NewString()[:8]
}
