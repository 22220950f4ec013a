package investment

import "context"

type Repository interface {
	Exists(ctx context.Context, key Key) (bool, error)

	// InsertBatch inserts all holdings in one transaction; a uniqueness
	// violation rolls back and returns store.ErrConflict.
	InsertBatch(ctx context.Context, investments []NewInvestment) ([]*Investment, error)

	ListByUserID(ctx context.Context, userID int64) ([]*Investment, error)
}
