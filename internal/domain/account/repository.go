package account

import "context"

// Repository defines the interface for account data access
type Repository interface {
	// FindByItemAndExternalID looks an account up by its natural key.
	// Returns ErrAccountNotFound when absent.
	FindByItemAndExternalID(ctx context.Context, itemID, accountID string) (*Account, error)

	// Exists reports whether an account with the natural key is persisted.
	Exists(ctx context.Context, key Key) (bool, error)

	// InsertBatch inserts all accounts in one transaction. A uniqueness
	// violation rolls back the batch and returns store.ErrConflict.
	InsertBatch(ctx context.Context, accounts []NewAccount) ([]*Account, error)

	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByUserID returns the user's accounts across all items.
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)
}
