package plaid

import (
	"context"
	"time"
)

// ClientInterface defines the aggregation API operations the application uses
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, req LinkTokenRequest) (*LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error)
	GetItem(ctx context.Context, accessToken string) (*Item, error)
	GetInstitutionByID(ctx context.Context, institutionID string) (*Institution, error)
	RemoveItem(ctx context.Context, accessToken string) error
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error)
	GetHoldings(ctx context.Context, accessToken string) (*Holdings, error)
}
