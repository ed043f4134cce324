package notes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE notes (
  owner       TEXT NOT NULL,
  id          TEXT NOT NULL,
  title       TEXT NOT NULL DEFAULT '',
  body        TEXT NOT NULL DEFAULT '',
  tag         TEXT NOT NULL DEFAULT '',
  favorite    INTEGER NOT NULL DEFAULT 0,
  updated_at  INTEGER NOT NULL,
  sync_state  TEXT NOT NULL DEFAULT 'synced',
  local_only  INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (owner, id)
);`)
	require.NoError(t, err)
	return db
}

func sampleNote(id string) models.Note {
	return models.Note{
		ID:         id,
		Title:      "Groceries",
		Body:       "milk, eggs",
		Tag:        "home",
		IsFavorite: true,
		UpdatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SyncState:  models.SyncStateSynced,
	}
}

func TestSQLiteRepository_PutListRoundTrip(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	want := sampleNote("n1")
	require.NoError(t, repo.Put(ctx, "alice", want))

	got, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, want, got[0])
}

func TestSQLiteRepository_PutOverwritesInPlace(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := sampleNote("n1")
	require.NoError(t, repo.Put(ctx, "alice", n))

	n.Title = "Groceries v2"
	n.SyncState = models.SyncStatePending
	require.NoError(t, repo.Put(ctx, "alice", n))

	got, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Groceries v2", got[0].Title)
	require.Equal(t, models.SyncStatePending, got[0].SyncState)
}

func TestSQLiteRepository_ListEmptyOwner(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))

	got, err := repo.List(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, got)
	require.NotNil(t, got)
}

func TestSQLiteRepository_OwnerIsolation(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "alice", sampleNote("n1")))
	require.NoError(t, repo.Put(ctx, "bob", sampleNote("n2")))

	aliceNotes, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceNotes, 1)
	require.Equal(t, "n1", aliceNotes[0].ID)

	require.NoError(t, repo.Delete(ctx, "alice", "n2")) // other owner's id, no-op
	bobNotes, err := repo.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobNotes, 1)
}

func TestSQLiteRepository_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "alice", sampleNote("n1")))
	require.NoError(t, repo.Delete(ctx, "alice", "n1"))

	first, err := repo.List(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "alice", "n1"))
	second, err := repo.List(ctx, "alice")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Empty(t, second)
}

func TestSQLiteRepository_Get(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	want := sampleNote("n1")
	require.NoError(t, repo.Put(ctx, "alice", want))

	got, err := repo.Get(ctx, "alice", "n1")
	require.NoError(t, err)
	require.Equal(t, want, *got)

	_, err = repo.Get(ctx, "alice", "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteRepository_PutAll(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	batch := []models.Note{sampleNote("n1"), sampleNote("n2"), sampleNote("n3")}
	require.NoError(t, repo.PutAll(ctx, "alice", batch))

	got, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestSQLiteRepository_Rename(t *testing.T) {
	t.Parallel()
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := sampleNote("local-123-abc")
	require.NoError(t, repo.Put(ctx, "alice", n))
	require.NoError(t, repo.Rename(ctx, "alice", "local-123-abc", "srv-9"))

	_, err := repo.Get(ctx, "alice", "local-123-abc")
	require.ErrorIs(t, err, common.ErrNotFound)

	got, err := repo.Get(ctx, "alice", "srv-9")
	require.NoError(t, err)
	require.Equal(t, "Groceries", got.Title)
}
