package institution

import "context"

type Repository interface {
	// FindOrCreate returns the institution with the given external id,
	// inserting it first if absent. Safe under concurrent callers.
	FindOrCreate(ctx context.Context, institutionID, name string) (*Institution, error)

	GetByID(ctx context.Context, id string) (*Institution, error)

	// GetByAccountID resolves the institution behind an account surrogate id.
	GetByAccountID(ctx context.Context, accountID string) (*Institution, error)
}
