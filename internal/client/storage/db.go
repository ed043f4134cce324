// Package storage opens the local SQLite database, applies the embedded
// goose migrations and vends the repository bundle.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/mkuznecovs/notesync/internal/client/migrations"
	"github.com/mkuznecovs/notesync/internal/client/repositories/metadata"
	"github.com/mkuznecovs/notesync/internal/client/repositories/mutations"
	"github.com/mkuznecovs/notesync/internal/client/repositories/notes"
	"github.com/mkuznecovs/notesync/internal/common"
	"github.com/mkuznecovs/notesync/internal/dbx"
)

// Repositories bundles the per-concern repositories bound to one database.
// Locks serializes multi-step store and queue writes per owner; every writer
// that reads-then-writes owner state must hold the owner's lock.
type Repositories struct {
	Notes     notes.Repository
	Mutations mutations.Repository
	Metadata  metadata.Repository
	Locks     *dbx.KeyedMutex
	DB        *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations. Safe to call on an
// already-migrated database.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the SQLite database at dsn, migrates it
// and returns the repository bundle.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", common.ErrStorage, err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping database: %v", common.ErrStorage, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: run migrations: %v", common.ErrStorage, err)
	}

	return &Repositories{
		Notes:     notes.NewSQLiteRepository(db),
		Mutations: mutations.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
		Locks:     &dbx.KeyedMutex{},
		DB:        db,
	}, nil
}
