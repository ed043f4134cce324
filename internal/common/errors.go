// Package common defines shared constants and sentinel errors used across
// the sync engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors (local persistence unavailable or corrupt).
	ErrStorage = errors.New("storage error")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Remote-side errors (gateway unreachable or a transient remote failure).
	ErrNetwork = errors.New("network error")

	// Validation errors (malformed mutation payload).
	ErrValidation = errors.New("invalid payload")

	// Orchestrator flow control: a sync pass is already running for the owner.
	ErrSyncInProgress = errors.New("sync already in progress")
)
