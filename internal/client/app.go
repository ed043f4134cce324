// Package client wires the sync engine together: local storage, the remote
// gateway and the services, plus the watcher that triggers sync passes when
// connectivity returns and on a periodic timer.
package client

import (
	"context"
	"errors"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/mkuznecovs/notesync/internal/client/config"
	"github.com/mkuznecovs/notesync/internal/client/remote"
	"github.com/mkuznecovs/notesync/internal/client/services"
	"github.com/mkuznecovs/notesync/internal/client/storage"
	"github.com/mkuznecovs/notesync/internal/common"
	"github.com/mkuznecovs/notesync/internal/logging"
)

// Mode tracks remote reachability as seen by the watcher.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// App owns the engine for one signed-in owner. The presentation layer is
// expected to hold an *App and use Notes/Sync for all interaction.
type App struct {
	config *config.Config
	log    logging.Logger

	repos   *storage.Repositories
	gateway remote.Gateway

	Notes *services.NoteService
	Sync  *services.SyncService

	mode Mode
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	repos, err := storage.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error(ctx, "database initialization failed", "err", err)
		return nil, err
	}

	gateway := remote.NewHTTPGateway(cfg.RemoteAddr, cfg.AuthToken, nil, cfg.RetryBaseDelay)

	noteService := services.NewNoteService(repos.Notes, repos.Mutations, repos.Locks, log)
	syncService := services.NewSyncService(gateway, repos.Notes, repos.Mutations, repos.Metadata,
		repos.Locks, services.Strategy(cfg.ConflictStrategy), cfg.RetryBaseDelay, log)

	return &App{
		config:  cfg,
		log:     log,
		repos:   repos,
		gateway: gateway,
		Notes:   noteService,
		Sync:    syncService,
		mode:    ModeOffline,
	}, nil
}

// Close releases the local database.
func (a *App) Close() error {
	return a.repos.DB.Close()
}

// Run blocks until ctx is cancelled, probing connectivity and running sync
// passes: one immediately after the remote becomes reachable, and one per
// sync interval while it stays reachable.
func (a *App) Run(ctx context.Context) {
	probe := time.NewTicker(a.config.OnlineCheckInterval)
	defer probe.Stop()

	periodic := time.NewTicker(a.config.SyncInterval)
	defer periodic.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-probe.C:
			if a.checkOnline(ctx) {
				// connectivity regained; drain the queue right away
				a.performSync(ctx)
			}
		case <-periodic.C:
			if a.mode == ModeOnline {
				a.performSync(ctx)
			}
		}
	}
}

// checkOnline probes the gateway and returns true on an offline-to-online
// transition.
func (a *App) checkOnline(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.gateway.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return false
	}
	if a.mode != ModeOnline {
		a.setMode(ctx, ModeOnline)
		return true
	}
	return false
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	if a.mode != mode {
		a.mode = mode
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
}

func (a *App) performSync(ctx context.Context) {
	res, err := a.Sync.PerformFullSync(ctx, a.config.Owner, false)
	if errors.Is(err, common.ErrSyncInProgress) {
		return
	}
	if !res.Success {
		a.log.Warn(ctx, "sync pass completed with errors", "errors", res.Errors)
	}
}
