package sqlstore

import (
	"context"

	"finsync/internal/domain/store"
)

// insertBatch inserts every record in one transaction. A uniqueness
// violation rolls the whole batch back and reports store.ErrConflict.
func insertBatch[N, T any](ctx context.Context, db *DB, records []N, insert func(context.Context, *Tx, N) (T, error)) ([]T, error) {
	out := make([]T, 0, len(records))
	err := db.WithTx(ctx, func(tx *Tx) error {
		for _, rec := range records {
			saved, err := insert(ctx, tx, rec)
			if err != nil {
				if isUniqueViolation(err) {
					return store.ErrConflict
				}
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
