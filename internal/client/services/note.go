package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/client/repositories/mutations"
	"github.com/mkuznecovs/notesync/internal/client/repositories/notes"
	"github.com/mkuznecovs/notesync/internal/dbx"
	"github.com/mkuznecovs/notesync/internal/logging"
)

// NoteService is the surface the presentation layer calls. Every mutating
// call is an explicit two-step: a synchronous optimistic local write plus an
// enqueue; the asynchronous sync pass reconciles later. A queue failure
// never rolls back the local write — local edits stay available even when
// sync cannot be guaranteed. Writes hold the owner's store lock so they
// never interleave with each other or with the sync pass's store writes.
type NoteService struct {
	notes notes.Repository
	queue mutations.Repository
	locks *dbx.KeyedMutex
	log   logging.Logger
	now   func() time.Time
}

func NewNoteService(notesRepo notes.Repository, queue mutations.Repository, locks *dbx.KeyedMutex, log logging.Logger) *NoteService {
	if locks == nil {
		locks = &dbx.KeyedMutex{}
	}
	return &NoteService{notes: notesRepo, queue: queue, locks: locks, log: log, now: time.Now}
}

// Create writes the note locally under a temporary id and queues a
// CreateNote mutation. The returned note carries the temporary id until a
// sync pass swaps in the server-assigned one.
func (s *NoteService) Create(ctx context.Context, owner, title, body, tag string) (models.Note, error) {
	mu := s.locks.Get(owner)
	mu.Lock()
	defer mu.Unlock()

	now := s.now().UTC()
	n := models.Note{
		ID:        models.NewLocalNoteID(now),
		Title:     title,
		Body:      body,
		Tag:       tag,
		UpdatedAt: now,
		SyncState: models.SyncStatePending,
		LocalOnly: true,
	}

	if err := s.notes.Put(ctx, owner, n); err != nil {
		return models.Note{}, err
	}

	payload := models.CreatePayload{NoteID: n.ID, Title: title, Body: body, Tag: tag}
	if _, err := s.queue.Enqueue(ctx, owner, models.KindCreateNote, payload, models.PriorityNormal); err != nil {
		return n, fmt.Errorf("note saved locally but not queued for sync: %w", err)
	}

	s.log.Debug(ctx, "note created", "owner", owner, "id", n.ID)
	return n, nil
}

// Update writes the new field values locally and queues an UpdateNote
// mutation carrying the full snapshot. Each edit enqueues its own mutation;
// replay order makes the latest snapshot the one the server ends up with.
func (s *NoteService) Update(ctx context.Context, owner, id, title, body, tag string, favorite bool) (models.Note, error) {
	mu := s.locks.Get(owner)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.notes.Get(ctx, owner, id)
	if err != nil {
		return models.Note{}, err
	}

	n := *existing
	n.Title = title
	n.Body = body
	n.Tag = tag
	n.IsFavorite = favorite
	n.UpdatedAt = s.now().UTC()
	n.SyncState = models.SyncStatePending

	if err := s.notes.Put(ctx, owner, n); err != nil {
		return models.Note{}, err
	}

	if err := s.enqueueUpdate(ctx, owner, n, models.PriorityNormal); err != nil {
		return n, err
	}
	return n, nil
}

// Delete removes the note locally and queues a DeleteNote mutation.
func (s *NoteService) Delete(ctx context.Context, owner, id string) error {
	mu := s.locks.Get(owner)
	mu.Lock()
	defer mu.Unlock()

	if err := s.notes.Delete(ctx, owner, id); err != nil {
		return err
	}

	// a second delete for the same id would replay identically; skip it
	pending, err := s.queue.HasPendingFor(ctx, owner, id, models.KindDeleteNote)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}

	payload := models.DeletePayload{NoteID: id}
	if _, err := s.queue.Enqueue(ctx, owner, models.KindDeleteNote, payload, models.PriorityNormal); err != nil {
		return fmt.Errorf("note deleted locally but not queued for sync: %w", err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag locally and queues a low-priority
// update carrying the full field snapshot.
func (s *NoteService) ToggleFavorite(ctx context.Context, owner, id string) (models.Note, error) {
	mu := s.locks.Get(owner)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.notes.Get(ctx, owner, id)
	if err != nil {
		return models.Note{}, err
	}

	n := *existing
	n.IsFavorite = !n.IsFavorite
	n.UpdatedAt = s.now().UTC()
	n.SyncState = models.SyncStatePending

	if err := s.notes.Put(ctx, owner, n); err != nil {
		return models.Note{}, err
	}

	if err := s.enqueueUpdate(ctx, owner, n, models.PriorityLow); err != nil {
		return n, err
	}
	return n, nil
}

func (s *NoteService) enqueueUpdate(ctx context.Context, owner string, n models.Note, priority int) error {
	payload := models.UpdatePayload{
		NoteID: n.ID, Title: n.Title, Body: n.Body, Tag: n.Tag, IsFavorite: n.IsFavorite,
	}
	if _, err := s.queue.Enqueue(ctx, owner, models.KindUpdateNote, payload, priority); err != nil {
		return fmt.Errorf("note saved locally but not queued for sync: %w", err)
	}
	return nil
}

// List returns the owner's materialized notes for rendering.
func (s *NoteService) List(ctx context.Context, owner string) ([]models.Note, error) {
	return s.notes.List(ctx, owner)
}

// PendingCount reports how many mutations still await upload.
func (s *NoteService) PendingCount(ctx context.Context, owner string) (int, error) {
	return s.queue.PendingCount(ctx, owner)
}

// HasPendingFor reports whether a pending mutation of the given kind already
// targets the note.
func (s *NoteService) HasPendingFor(ctx context.Context, owner, id string, kind models.Kind) (bool, error) {
	return s.queue.HasPendingFor(ctx, owner, id, kind)
}
