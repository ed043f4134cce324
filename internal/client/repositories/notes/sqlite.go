package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/common"
	"github.com/mkuznecovs/notesync/internal/dbx"
)

// SQLiteRepository implements Repository on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const noteColumns = `id, title, body, tag, favorite, updated_at, sync_state, local_only`

func scanNote(row interface{ Scan(...any) error }) (models.Note, error) {
	var n models.Note
	var favorite, localOnly int
	var updatedAt int64
	var state string
	err := row.Scan(&n.ID, &n.Title, &n.Body, &n.Tag, &favorite, &updatedAt, &state, &localOnly)
	if err != nil {
		return models.Note{}, err
	}
	n.IsFavorite = favorite != 0
	n.LocalOnly = localOnly != 0
	n.UpdatedAt = time.Unix(0, updatedAt).UTC()
	n.SyncState = models.SyncState(state)
	return n, nil
}

func (r *SQLiteRepository) List(ctx context.Context, owner string) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner = ? ORDER BY updated_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: list notes: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	result := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan note: %v", common.ErrStorage, err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate notes: %v", common.ErrStorage, err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, owner, id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner = ? AND id = ?`
	n, err := scanNote(r.db.QueryRowContext(ctx, query, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get note %s: %v", common.ErrStorage, id, err)
	}
	return &n, nil
}

func putNote(ctx context.Context, db dbx.DBTX, owner string, n models.Note) error {
	query := `INSERT INTO notes (owner, id, title, body, tag, favorite, updated_at, sync_state, local_only)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			tag = excluded.tag,
			favorite = excluded.favorite,
			updated_at = excluded.updated_at,
			sync_state = excluded.sync_state,
			local_only = excluded.local_only`
	_, err := db.ExecContext(ctx, query,
		owner, n.ID, n.Title, n.Body, n.Tag, boolInt(n.IsFavorite),
		n.UpdatedAt.UnixNano(), string(n.SyncState), boolInt(n.LocalOnly))
	if err != nil {
		return fmt.Errorf("%w: upsert note %s: %v", common.ErrStorage, n.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Put(ctx context.Context, owner string, note models.Note) error {
	return putNote(ctx, r.db, owner, note)
}

func (r *SQLiteRepository) PutAll(ctx context.Context, owner string, notes []models.Note) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, n := range notes {
			if err := putNote(ctx, tx, owner, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("%w: delete note %s: %v", common.ErrStorage, id, err)
	}
	return nil
}

func (r *SQLiteRepository) Rename(ctx context.Context, owner, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notes SET id = ? WHERE owner = ? AND id = ?`, newID, owner, oldID)
	if err != nil {
		return fmt.Errorf("%w: rename note %s: %v", common.ErrStorage, oldID, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
