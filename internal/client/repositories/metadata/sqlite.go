package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkuznecovs/notesync/internal/common"
	"github.com/mkuznecovs/notesync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, owner, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE owner = ? AND key = ?`, owner, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get metadata[%s]: %v", common.ErrStorage, key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, owner, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (owner, key, value) VALUES (?, ?, ?)
		ON CONFLICT(owner, key) DO UPDATE SET value = excluded.value
	`, owner, key, value)
	if err != nil {
		return fmt.Errorf("%w: set metadata[%s]: %v", common.ErrStorage, key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM metadata WHERE owner = ? AND key = ?`, owner, key)
	if err != nil {
		return fmt.Errorf("%w: delete metadata[%s]: %v", common.ErrStorage, key, err)
	}
	return nil
}
