package transaction

import "context"

type Repository interface {
	// Exists reports whether a transaction with the provider id is persisted.
	Exists(ctx context.Context, transactionID string) (bool, error)

	// InsertBatch inserts all transactions in one database transaction.
	// A uniqueness violation rolls back and returns store.ErrConflict.
	InsertBatch(ctx context.Context, txs []NewTransaction) ([]*Transaction, error)

	GetByID(ctx context.Context, id string) (*Transaction, error)

	// ListByUserID returns the user's transactions within the range, newest first.
	ListByUserID(ctx context.Context, userID int64, r DateRange) ([]*Transaction, error)

	Delete(ctx context.Context, id string) error
}
