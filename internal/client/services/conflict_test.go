package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/client/remote"
)

var conflictBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func localNote(updatedAt time.Time) models.Note {
	return models.Note{
		ID:         "srv-1",
		Title:      "Groceries",
		Body:       "milk",
		Tag:        "home",
		IsFavorite: true,
		UpdatedAt:  updatedAt,
		SyncState:  models.SyncStatePending,
	}
}

func remoteNote(updatedAt time.Time) remote.RemoteNote {
	return remote.RemoteNote{
		ID:        "srv-1",
		Title:     "Groceries and more",
		Body:      "eggs",
		Tag:       "shopping",
		UpdatedAt: updatedAt,
	}
}

func TestDetectConflict(t *testing.T) {
	t.Parallel()

	// edits 4 minutes apart with differing content: conflict
	require.True(t, DetectConflict(localNote(conflictBase), remoteNote(conflictBase.Add(4*time.Minute))))
	// order of the two timestamps does not matter
	require.True(t, DetectConflict(localNote(conflictBase.Add(4*time.Minute)), remoteNote(conflictBase)))

	// 10 minutes apart: settled by newest-wins, not a conflict
	require.False(t, DetectConflict(localNote(conflictBase), remoteNote(conflictBase.Add(10*time.Minute))))

	// close in time but identical content
	ln := localNote(conflictBase)
	rn := remoteNote(conflictBase.Add(time.Minute))
	rn.Title, rn.Body, rn.Tag = ln.Title, ln.Body, ln.Tag
	require.False(t, DetectConflict(ln, rn))
}

func TestResolveConflict_ClientWins(t *testing.T) {
	t.Parallel()
	ln := localNote(conflictBase)
	rn := remoteNote(conflictBase.Add(time.Minute))

	got := ResolveConflict(ln, rn, ClientWins, conflictBase.Add(2*time.Minute))
	require.Equal(t, ln, got)
}

func TestResolveConflict_ServerWins(t *testing.T) {
	t.Parallel()
	ln := localNote(conflictBase)
	rn := remoteNote(conflictBase.Add(time.Minute))

	got := ResolveConflict(ln, rn, ServerWins, conflictBase.Add(2*time.Minute))
	require.Equal(t, rn.Title, got.Title)
	require.Equal(t, rn.Body, got.Body)
	require.Equal(t, rn.Tag, got.Tag)
	require.Equal(t, models.SyncStateSynced, got.SyncState)
	require.False(t, got.IsFavorite)
}

func TestResolveConflict_Merge(t *testing.T) {
	t.Parallel()
	ln := localNote(conflictBase)
	rn := remoteNote(conflictBase.Add(time.Minute))
	now := conflictBase.Add(2 * time.Minute)

	got := ResolveConflict(ln, rn, Merge, now)

	// longer title wins
	require.Equal(t, "Groceries and more", got.Title)
	// differing non-empty bodies are concatenated under the separator
	require.Equal(t, "milk"+mergeSeparator+"eggs", got.Body)
	// tag and favorite stay local
	require.Equal(t, "home", got.Tag)
	require.True(t, got.IsFavorite)
	// the merge is itself a new edit
	require.Equal(t, now, got.UpdatedAt)
}

func TestResolveConflict_MergeEmptySides(t *testing.T) {
	t.Parallel()
	now := conflictBase.Add(2 * time.Minute)

	ln := localNote(conflictBase)
	ln.Body = ""
	ln.Tag = ""
	rn := remoteNote(conflictBase.Add(time.Minute))
	got := ResolveConflict(ln, rn, Merge, now)
	require.Equal(t, "eggs", got.Body)
	require.Equal(t, "shopping", got.Tag)

	ln = localNote(conflictBase)
	rn = remoteNote(conflictBase.Add(time.Minute))
	rn.Body = ""
	got = ResolveConflict(ln, rn, Merge, now)
	require.Equal(t, "milk", got.Body)
}

func TestResolveConflict_AskUserFallsBackToLocal(t *testing.T) {
	t.Parallel()
	ln := localNote(conflictBase)
	rn := remoteNote(conflictBase.Add(time.Minute))

	require.Equal(t, ln, ResolveConflict(ln, rn, AskUser, conflictBase))
	require.Equal(t, ln, ResolveConflict(ln, rn, Strategy("bogus"), conflictBase))
}
