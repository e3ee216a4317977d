// Package upsert implements the check-then-insert-then-recover protocol used
// wherever the application needs at-most-once writes without a distributed
// lock. Mutual exclusion is delegated entirely to the store's uniqueness
// constraints: concurrent writers race on the insert and the losers recover
// the winner's row by re-querying.
package upsert

import (
	"context"

	"event_leads_backend/platform/apperr"
)

// Resolve returns the single row identified by find, inserting it when absent.
//
// find reports (value, found, error). insert attempts the constrained write.
// isDuplicate classifies insert errors caused by a uniqueness violation, i.e.
// a concurrent writer won the race between the find and the insert; in that
// case the row is re-queried and the winner's value returned. A duplicate
// signal with an empty re-query indicates a store anomaly, not a race, and
// surfaces as an internal error carrying the original insert failure.
//
// The second return value reports whether this call performed the insert.
func Resolve[T any](
	ctx context.Context,
	find func(context.Context) (T, bool, error),
	insert func(context.Context) (T, error),
	isDuplicate func(error) bool,
) (T, bool, error) {
	var zero T

	existing, found, err := find(ctx)
	if err != nil {
		return zero, false, err
	}
	if found {
		return existing, false, nil
	}

	inserted, insertErr := insert(ctx)
	if insertErr == nil {
		return inserted, true, nil
	}
	if !isDuplicate(insertErr) {
		return zero, false, insertErr
	}

	recovered, found, err := find(ctx)
	if err != nil {
		return zero, false, err
	}
	if !found {
		return zero, false, apperr.Wrap(apperr.KindInternal, "uniqueness violation without a winning row", insertErr)
	}
	return recovered, false, nil
}
