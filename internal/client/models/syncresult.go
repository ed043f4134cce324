package models

import "time"

// SyncResult summarizes one full sync pass. It is ephemeral: only the
// success flag and the finish time outlive the pass (as "last sync time").
type SyncResult struct {
	Success  bool
	Uploaded int
	// Downloaded counts remote-driven changes applied locally: inserts,
	// newer-remote overwrites, and deletions propagated from the server.
	Downloaded        int
	ConflictsResolved int
	Errors            []string
	FinishedAt        time.Time
}
