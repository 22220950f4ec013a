// Package reconcile decides which normalized records are new. Records already
// persisted are skipped; they are never updated.
package reconcile

import (
	"context"
	"fmt"
)

// Outcome is the result of filtering one batch.
type Outcome[T any] struct {
	// Fresh holds records with pairwise distinct keys not yet persisted, in
	// first-seen order.
	Fresh []T
	// Existing counts records skipped because their key is already stored.
	Existing int
	// Duplicates counts records collapsed by an in-batch key repeat.
	Duplicates int
}

// Filter dedupes records by key, keeping the content of the last occurrence
// at the position of the first, then drops keys for which exists reports
// true. An exists error aborts the whole batch.
func Filter[T any, K comparable](ctx context.Context, records []T, keyOf func(T) K, exists func(context.Context, K) (bool, error)) (*Outcome[T], error) {
	out := &Outcome[T]{}

	pos := make(map[K]int, len(records))
	unique := make([]T, 0, len(records))
	for _, r := range records {
		k := keyOf(r)
		if i, seen := pos[k]; seen {
			unique[i] = r
			out.Duplicates++
			continue
		}
		pos[k] = len(unique)
		unique = append(unique, r)
	}

	out.Fresh = make([]T, 0, len(unique))
	for _, r := range unique {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := exists(ctx, keyOf(r))
		if err != nil {
			return nil, fmt.Errorf("failed to check existing record: %w", err)
		}
		if found {
			out.Existing++
			continue
		}
		out.Fresh = append(out.Fresh, r)
	}
	return out, nil
}
