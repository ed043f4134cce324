package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/client/remote"
	"github.com/mkuznecovs/notesync/internal/client/repositories/metadata"
	"github.com/mkuznecovs/notesync/internal/client/repositories/mutations"
	"github.com/mkuznecovs/notesync/internal/client/repositories/notes"
	"github.com/mkuznecovs/notesync/internal/common"
	"github.com/mkuznecovs/notesync/internal/dbx"
	"github.com/mkuznecovs/notesync/internal/logging"
)

const (
	lastSyncTimeKey    = "last_sync_time"
	lastSyncSuccessKey = "last_sync_success"
)

// SyncService drives one complete reconciliation pass between the local
// store and the remote service: upload queued mutations, download the remote
// set resolving conflicts, then clean up. A pass is non-reentrant per owner.
//
// Two locks are in play: passLocks keeps passes non-reentrant and is held
// for the whole pass including network calls; storeLocks is the storage
// bundle's per-owner write lock, shared with NoteService, held only around
// store writes so local edits never wait on the network.
type SyncService struct {
	gateway    remote.Gateway
	notes      notes.Repository
	queue      mutations.Repository
	meta       metadata.Repository
	storeLocks *dbx.KeyedMutex
	strategy   Strategy
	baseDelay  time.Duration
	log        logging.Logger

	passLocks *dbx.KeyedMutex
	now       func() time.Time
}

func NewSyncService(gateway remote.Gateway, notesRepo notes.Repository, queue mutations.Repository, meta metadata.Repository, storeLocks *dbx.KeyedMutex, strategy Strategy, baseDelay time.Duration, log logging.Logger) *SyncService {
	if strategy == "" {
		strategy = ClientWins
	}
	if storeLocks == nil {
		storeLocks = &dbx.KeyedMutex{}
	}
	return &SyncService{
		gateway:    gateway,
		notes:      notesRepo,
		queue:      queue,
		meta:       meta,
		storeLocks: storeLocks,
		strategy:   strategy,
		baseDelay:  baseDelay,
		log:        log,
		passLocks:  &dbx.KeyedMutex{},
		now:        time.Now,
	}
}

// session holds the per-pass counters and error list. It is discarded at the
// end of the run; only the summary is persisted.
type session struct {
	uploaded   int
	downloaded int
	conflicts  int
	errs       []string
}

func (s *session) fail(format string, args ...any) {
	s.errs = append(s.errs, fmt.Sprintf(format, args...))
}

func (s *session) result(finished time.Time) models.SyncResult {
	return models.SyncResult{
		Success:           len(s.errs) == 0,
		Uploaded:          s.uploaded,
		Downloaded:        s.downloaded,
		ConflictsResolved: s.conflicts,
		Errors:            s.errs,
		FinishedAt:        finished,
	}
}

// PerformFullSync runs one upload-download-cleanup pass for the owner.
// A second call while one is in flight returns common.ErrSyncInProgress
// unless force is set, in which case it waits for the running pass.
// Remote failures never propagate past this boundary; callers always get a
// structured result.
func (s *SyncService) PerformFullSync(ctx context.Context, owner string, force bool) (models.SyncResult, error) {
	mu := s.passLocks.Get(owner)
	if force {
		mu.Lock()
	} else if !mu.TryLock() {
		return models.SyncResult{
			Success:    false,
			Errors:     []string{common.ErrSyncInProgress.Error()},
			FinishedAt: s.now().UTC(),
		}, common.ErrSyncInProgress
	}
	defer mu.Unlock()

	s.log.Info(ctx, "sync pass started", "owner", owner)

	sess := &session{}
	s.uploadPhase(ctx, owner, sess)
	s.downloadPhase(ctx, owner, sess)
	s.cleanupPhase(ctx, owner, sess)

	res := sess.result(s.now().UTC())
	s.log.Info(ctx, "sync pass finished",
		"owner", owner,
		"success", res.Success,
		"uploaded", res.Uploaded,
		"downloaded", res.Downloaded,
		"conflicts", res.ConflictsResolved,
		"errors", len(res.Errors))
	return res, nil
}

// uploadPhase replays pending mutations in queue order. A failing mutation
// does not halt the phase; every due pending mutation gets one attempt per
// pass. Mutations still inside their backoff window are left for a later
// pass. Server ids adopted mid-phase are threaded through renames so
// follow-up mutations for the same note replay in this pass.
func (s *SyncService) uploadPhase(ctx context.Context, owner string, sess *session) {
	pending, err := s.queue.ListPending(ctx, owner)
	if err != nil {
		sess.fail("list pending mutations: %v", err)
		return
	}

	renames := make(map[string]string)

	for _, m := range pending {
		if !s.attemptDue(m) {
			continue
		}
		if err := s.queue.MarkProcessing(ctx, m.ID); err != nil {
			sess.fail("mark processing %s: %v", m.ID, err)
			continue
		}

		err := s.dispatch(ctx, owner, m, renames)
		if err == nil {
			if err := s.queue.MarkCompleted(ctx, m.ID); err != nil {
				sess.fail("mark completed %s: %v", m.ID, err)
				continue
			}
			sess.uploaded++
			continue
		}

		sess.fail("%s: %v", m.Kind, err)
		s.log.Warn(ctx, "mutation upload failed", "id", m.ID, "kind", m.Kind, "err", err)

		count, rerr := s.queue.IncrementRetry(ctx, m.ID)
		if rerr != nil {
			sess.fail("increment retry %s: %v", m.ID, rerr)
			continue
		}
		if count >= mutations.MaxRetries {
			if ferr := s.queue.MarkFailed(ctx, m.ID, err.Error()); ferr != nil {
				sess.fail("mark failed %s: %v", m.ID, ferr)
			}
		} else {
			if rerr := s.queue.MarkRetry(ctx, m.ID, err.Error()); rerr != nil {
				sess.fail("mark retry %s: %v", m.ID, rerr)
			}
		}
	}
}

// attemptDue reports whether the mutation's exponential backoff window has
// elapsed. First attempts are always due.
func (s *SyncService) attemptDue(m models.Mutation) bool {
	if m.LastAttemptAt == nil {
		return true
	}
	delay := mutations.RetryDelay(s.baseDelay, m.RetryCount)
	return !s.now().UTC().Before(m.LastAttemptAt.Add(delay))
}

// dispatch replays one mutation against the gateway by kind. renames maps
// temporary ids to server ids adopted earlier in the same phase.
func (s *SyncService) dispatch(ctx context.Context, owner string, m models.Mutation, renames map[string]string) error {
	payload, err := m.DecodePayload()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	switch p := payload.(type) {
	case models.CreatePayload:
		created, err := s.gateway.Create(ctx, p.Title, p.Body, p.Tag)
		if err != nil {
			return err
		}
		if err := s.adoptServerID(ctx, owner, p, created); err != nil {
			return err
		}
		renames[p.NoteID] = created.ID
		return nil

	case models.UpdatePayload:
		if newID, ok := renames[p.NoteID]; ok {
			p.NoteID = newID
		}
		if models.IsLocalNoteID(p.NoteID) {
			// the create has not been acknowledged yet; retry next pass
			return fmt.Errorf("note %s not yet created remotely", p.NoteID)
		}
		if err := s.gateway.Update(ctx, p.NoteID, p.Title, p.Body, p.Tag); err != nil {
			return err
		}
		s.markSynced(ctx, owner, p.NoteID)
		return nil

	case models.DeletePayload:
		if newID, ok := renames[p.NoteID]; ok {
			p.NoteID = newID
		}
		if models.IsLocalNoteID(p.NoteID) {
			// never reached the server, nothing remote to delete
			return nil
		}
		return s.gateway.Delete(ctx, p.NoteID)

	default:
		return fmt.Errorf("%w: unhandled mutation kind %q", common.ErrValidation, m.Kind)
	}
}

// adoptServerID swaps the temporary client id for the server-assigned one:
// the notes row is renamed and every pending mutation payload that still
// references the temporary id is rewritten, so queued edits replay against
// the canonical id on later passes too.
func (s *SyncService) adoptServerID(ctx context.Context, owner string, p models.CreatePayload, created remote.RemoteNote) error {
	mu := s.storeLocks.Get(owner)
	mu.Lock()
	defer mu.Unlock()

	if err := s.notes.Rename(ctx, owner, p.NoteID, created.ID); err != nil {
		return err
	}
	if err := s.queue.ReassignNoteID(ctx, owner, p.NoteID, created.ID); err != nil {
		return err
	}
	n := noteFromRemote(created)
	n.IsFavorite = p.IsFavorite // favorites live client-side only
	return s.notes.Put(ctx, owner, n)
}

func (s *SyncService) markSynced(ctx context.Context, owner, id string) {
	mu := s.storeLocks.Get(owner)
	mu.Lock()
	defer mu.Unlock()

	n, err := s.notes.Get(ctx, owner, id)
	if err != nil {
		return
	}
	n.SyncState = models.SyncStateSynced
	if err := s.notes.Put(ctx, owner, *n); err != nil {
		s.log.Warn(ctx, "mark note synced failed", "id", id, "err", err)
	}
}

// downloadPhase pulls the full remote set and merges it into the local
// store. The local read, the bulk write and the deletion sweep happen under
// the owner's store lock so a concurrent local edit cannot interleave with
// the resolved snapshot.
func (s *SyncService) downloadPhase(ctx context.Context, owner string, sess *session) {
	remoteNotes, err := s.gateway.List(ctx, owner)
	if err != nil {
		sess.fail("list remote notes: %v", err)
		return
	}

	mu := s.storeLocks.Get(owner)
	mu.Lock()
	defer mu.Unlock()

	local, err := s.notes.List(ctx, owner)
	if err != nil {
		sess.fail("list local notes: %v", err)
		return
	}

	localByID := make(map[string]models.Note, len(local))
	for _, n := range local {
		localByID[n.ID] = n
	}
	remoteIDs := make(map[string]struct{}, len(remoteNotes))

	var resolved []models.Note
	for _, rn := range remoteNotes {
		remoteIDs[rn.ID] = struct{}{}

		ln, ok := localByID[rn.ID]
		if !ok {
			resolved = append(resolved, noteFromRemote(rn))
			sess.downloaded++
			continue
		}

		if DetectConflict(ln, rn) {
			resolved = append(resolved, ResolveConflict(ln, rn, s.strategy, s.now()))
			sess.conflicts++
			continue
		}

		// newest wins; local wins ties
		if rn.UpdatedAt.After(ln.UpdatedAt) {
			resolved = append(resolved, noteFromRemote(rn))
			sess.downloaded++
		}
	}

	if len(resolved) > 0 {
		if err := s.notes.PutAll(ctx, owner, resolved); err != nil {
			sess.fail("store remote notes: %v", err)
			return
		}
	}

	// Local notes the server no longer returns were deleted remotely,
	// unless an unreconciled create or delete mutation still references
	// them; those are deferred to the next pass. An applied deletion is a
	// remote-driven change, so it counts toward the downloaded total.
	for _, ln := range local {
		if _, ok := remoteIDs[ln.ID]; ok {
			continue
		}
		skip, err := s.deferDeletion(ctx, owner, ln)
		if err != nil {
			sess.fail("check pending mutations for %s: %v", ln.ID, err)
			continue
		}
		if skip {
			continue
		}
		if err := s.notes.Delete(ctx, owner, ln.ID); err != nil {
			sess.fail("delete note %s: %v", ln.ID, err)
			continue
		}
		sess.downloaded++
	}
}

func (s *SyncService) deferDeletion(ctx context.Context, owner string, n models.Note) (bool, error) {
	if n.LocalOnly {
		return true, nil
	}
	hasDelete, err := s.queue.HasPendingFor(ctx, owner, n.ID, models.KindDeleteNote)
	if err != nil {
		return false, err
	}
	if hasDelete {
		return true, nil
	}
	hasCreate, err := s.queue.HasPendingFor(ctx, owner, n.ID, models.KindCreateNote)
	if err != nil {
		return false, err
	}
	return hasCreate, nil
}

func (s *SyncService) cleanupPhase(ctx context.Context, owner string, sess *session) {
	if err := s.queue.ClearCompleted(ctx, owner); err != nil {
		sess.fail("clear completed mutations: %v", err)
	}

	finished := s.now().UTC()
	if err := s.meta.Set(ctx, owner, lastSyncTimeKey, []byte(finished.Format(time.RFC3339Nano))); err != nil {
		sess.fail("persist last sync time: %v", err)
	}
	success := "0"
	if len(sess.errs) == 0 {
		success = "1"
	}
	if err := s.meta.Set(ctx, owner, lastSyncSuccessKey, []byte(success)); err != nil {
		sess.fail("persist last sync status: %v", err)
	}
}

// LastSyncTime returns the finish time of the most recent sync pass, or the
// zero time when the owner has never synced.
func (s *SyncService) LastSyncTime(ctx context.Context, owner string) (time.Time, error) {
	raw, err := s.meta.Get(ctx, owner, lastSyncTimeKey)
	if err != nil {
		return time.Time{}, err
	}
	if raw == nil {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: corrupt last sync time: %v", common.ErrStorage, err)
	}
	return t, nil
}
