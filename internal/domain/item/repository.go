package item

import "context"

type Repository interface {
	// Create persists the item. A second item for the same (user,
	// institution) returns ErrItemExists.
	Create(ctx context.Context, item NewItem) (*Item, error)

	GetByID(ctx context.Context, id string) (*Item, error)

	// ListByUserID returns the user's items oldest first with their
	// institution joined in.
	ListByUserID(ctx context.Context, userID int64) ([]*Item, error)

	ExistsForInstitution(ctx context.Context, userID int64, institutionID string) (bool, error)

	// Delete removes the item and, by cascade, its accounts and their records.
	Delete(ctx context.Context, id string) error

	// ListUserIDs returns every user with at least one item.
	ListUserIDs(ctx context.Context) ([]int64, error)
}
