package mutations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/common"
	"github.com/mkuznecovs/notesync/internal/dbx"
)

// SQLiteRepository implements Repository on a local SQLite database.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, owner string, kind models.Kind, payload any, priority int) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", common.ErrValidation, err)
	}
	if err := validatePayload(kind, raw); err != nil {
		return "", err
	}

	now := r.now().UTC()
	id := models.NewMutationID(kind, now)
	query := `INSERT INTO mutations (id, owner, kind, payload, priority, enqueued_at, status, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`
	_, err = r.db.ExecContext(ctx, query,
		id, owner, string(kind), raw, priority, now.UnixNano(), string(models.MutationPending))
	if err != nil {
		return "", fmt.Errorf("%w: enqueue mutation: %v", common.ErrStorage, err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context, owner string) ([]models.Mutation, error) {
	query := `SELECT id, owner, kind, payload, priority, enqueued_at, status, retry_count, last_attempt_at, last_error
		FROM mutations
		WHERE owner = ? AND status = ?
		ORDER BY priority ASC, enqueued_at ASC`
	rows, err := r.db.QueryContext(ctx, query, owner, string(models.MutationPending))
	if err != nil {
		return nil, fmt.Errorf("%w: list pending mutations: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []models.Mutation
	for rows.Next() {
		var m models.Mutation
		var kind, status string
		var enqueuedAt int64
		var lastAttemptAt sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Owner, &kind, &m.Payload, &m.Priority,
			&enqueuedAt, &status, &m.RetryCount, &lastAttemptAt, &m.LastError); err != nil {
			return nil, fmt.Errorf("%w: scan mutation: %v", common.ErrStorage, err)
		}
		m.Kind = models.Kind(kind)
		m.Status = models.MutationStatus(status)
		m.EnqueuedAt = time.Unix(0, enqueuedAt).UTC()
		if lastAttemptAt.Valid {
			t := time.Unix(0, lastAttemptAt.Int64).UTC()
			m.LastAttemptAt = &t
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate mutations: %v", common.ErrStorage, err)
	}
	return result, nil
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id string, status models.MutationStatus, cause string) error {
	query := `UPDATE mutations SET status = ?, last_attempt_at = ?, last_error = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, string(status), r.now().UTC().UnixNano(), cause, id)
	if err != nil {
		return fmt.Errorf("%w: mark mutation %s %s: %v", common.ErrStorage, id, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: mutation %s", common.ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.MutationProcessing, "")
}

func (r *SQLiteRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.MutationCompleted, "")
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id, cause string) error {
	return r.setStatus(ctx, id, models.MutationFailed, cause)
}

// MarkRetry returns a mutation to pending so the next pass picks it up again.
func (r *SQLiteRepository) MarkRetry(ctx context.Context, id, cause string) error {
	return r.setStatus(ctx, id, models.MutationPending, cause)
}

func (r *SQLiteRepository) IncrementRetry(ctx context.Context, id string) (int, error) {
	query := `UPDATE mutations SET retry_count = retry_count + 1, last_attempt_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, r.now().UTC().UnixNano(), id); err != nil {
		return 0, fmt.Errorf("%w: increment retry for %s: %v", common.ErrStorage, id, err)
	}
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT retry_count FROM mutations WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: read retry count for %s: %v", common.ErrStorage, id, err)
	}
	return count, nil
}

func (r *SQLiteRepository) PendingCount(ctx context.Context, owner string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mutations WHERE owner = ? AND status = ?`,
		owner, string(models.MutationPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count pending mutations: %v", common.ErrStorage, err)
	}
	return n, nil
}

func (r *SQLiteRepository) ClearCompleted(ctx context.Context, owner string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM mutations WHERE owner = ? AND status = ?`,
		owner, string(models.MutationCompleted))
	if err != nil {
		return fmt.Errorf("%w: clear completed mutations: %v", common.ErrStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) ReassignNoteID(ctx context.Context, owner, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mutations SET payload = json_set(payload, '$.noteId', ?)
		WHERE owner = ? AND status = ? AND json_extract(payload, '$.noteId') = ?`,
		newID, owner, string(models.MutationPending), oldID)
	if err != nil {
		return fmt.Errorf("%w: reassign note id %s: %v", common.ErrStorage, oldID, err)
	}
	return nil
}

func (r *SQLiteRepository) HasPendingFor(ctx context.Context, owner, noteID string, kind models.Kind) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM mutations
			WHERE owner = ? AND kind = ? AND status = ?
			AND json_extract(payload, '$.noteId') = ?
		)`,
		owner, string(kind), string(models.MutationPending), noteID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: check pending mutation: %v", common.ErrStorage, err)
	}
	return n != 0, nil
}
