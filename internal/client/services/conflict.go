// Package services contains the note service (the boundary the presentation
// layer calls), the sync orchestrator and the conflict resolver.
package services

import (
	"time"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/client/remote"
)

// Strategy selects how a simultaneous-edit conflict is resolved.
type Strategy string

const (
	// ClientWins keeps the local version unchanged. The default.
	ClientWins Strategy = "client_wins"
	// ServerWins takes the remote version.
	ServerWins Strategy = "server_wins"
	// Merge reconciles field by field.
	Merge Strategy = "merge"
	// AskUser is reserved for interactive resolution; until that exists it
	// falls back to ClientWins.
	AskUser Strategy = "ask_user"
)

// ConflictWindow is the time proximity under which edits on both sides count
// as a true conflict. Edits further apart are settled by newest-wins.
const ConflictWindow = 5 * time.Minute

const mergeSeparator = "\n\n--- Merged from server ---\n"

// DetectConflict reports whether the note was edited on both sides: the two
// timestamps fall inside the conflict window and at least one content field
// differs.
func DetectConflict(local models.Note, rn remote.RemoteNote) bool {
	diff := local.UpdatedAt.Sub(rn.UpdatedAt)
	if diff < 0 {
		diff = -diff
	}
	if diff >= ConflictWindow {
		return false
	}
	return local.Title != rn.Title || local.Body != rn.Body || local.Tag != rn.Tag
}

// ResolveConflict picks the winning version. Pure function, no I/O.
func ResolveConflict(local models.Note, rn remote.RemoteNote, strategy Strategy, now time.Time) models.Note {
	switch strategy {
	case ServerWins:
		return noteFromRemote(rn)
	case Merge:
		return mergeNotes(local, rn, now)
	case ClientWins, AskUser:
		return local
	default:
		return local
	}
}

// mergeNotes reconciles field-wise: the longer title wins, differing
// non-empty bodies are concatenated under a visible separator, tag and
// favorite stay local (explicit user choices), and the timestamp moves to
// now since the merge is itself a new edit.
func mergeNotes(local models.Note, rn remote.RemoteNote, now time.Time) models.Note {
	merged := local

	if len(rn.Title) > len(local.Title) {
		merged.Title = rn.Title
	}

	if local.Body != rn.Body {
		if local.Body != "" && rn.Body != "" {
			merged.Body = local.Body + mergeSeparator + rn.Body
		} else if local.Body == "" {
			merged.Body = rn.Body
		}
	}

	if merged.Tag == "" {
		merged.Tag = rn.Tag
	}

	merged.UpdatedAt = now.UTC()
	return merged
}

// noteFromRemote materializes a remote note as a synced local note.
func noteFromRemote(rn remote.RemoteNote) models.Note {
	return models.Note{
		ID:         rn.ID,
		Title:      rn.Title,
		Body:       rn.Body,
		Tag:        rn.Tag,
		IsFavorite: rn.IsFavorite,
		UpdatedAt:  rn.UpdatedAt.UTC(),
		SyncState:  models.SyncStateSynced,
		LocalOnly:  false,
	}
}
