// Package state persists the per-channel alert records that survive across
// process invocations. The engine has no long-lived memory: every cycle is
// an explicit load-gate-commit pass over these records.
//
// The one concurrency invariant the package upholds: for a given channel,
// commits are linearizable. Two overlapping invocations must never both
// pass a cooldown gate on the same stale record and both commit; the loser
// receives a state_conflict error and aborts before notifying.
package state

import (
	"context"

	"aurorawatch/internal/types"
)

// Store is the persistence contract for alert state records.
type Store interface {
	// Load returns all persisted records keyed by channel ID. A missing
	// backing record (first-ever run, or operator reset) yields an empty
	// map, not an error.
	Load(ctx context.Context) (map[string]types.AlertState, error)

	// Commit atomically replaces the record for next.ChannelID, but only
	// if the currently persisted record still matches prev (compare-and-
	// swap). Returns a state_conflict error when another invocation
	// committed in between, and a state_persist error on I/O failure.
	Commit(ctx context.Context, prev, next types.AlertState) error
}
