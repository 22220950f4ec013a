// Package plaidtest provides a configurable in-memory plaid client for tests.
package plaidtest

import (
	"context"
	"sync"
	"time"

	"finsync/internal/infrastructure/plaid"
)

// MockClient implements plaid.ClientInterface. Unset funcs return empty
// successful responses. Removed access tokens are recorded.
type MockClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, req plaid.LinkTokenRequest) (*plaid.LinkToken, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*plaid.Exchange, error)
	GetItemFunc             func(ctx context.Context, accessToken string) (*plaid.Item, error)
	GetInstitutionByIDFunc  func(ctx context.Context, institutionID string) (*plaid.Institution, error)
	RemoveItemFunc          func(ctx context.Context, accessToken string) error
	GetAccountsFunc         func(ctx context.Context, accessToken string) ([]plaid.Account, error)
	GetTransactionsFunc     func(ctx context.Context, accessToken string, start, end time.Time) ([]plaid.Transaction, error)
	GetHoldingsFunc         func(ctx context.Context, accessToken string) (*plaid.Holdings, error)

	mu      sync.Mutex
	removed []string
}

var _ plaid.ClientInterface = (*MockClient)(nil)

func (m *MockClient) CreateLinkToken(ctx context.Context, req plaid.LinkTokenRequest) (*plaid.LinkToken, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, req)
	}
	return &plaid.LinkToken{LinkToken: "link-sandbox-test"}, nil
}

func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.Exchange, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return &plaid.Exchange{AccessToken: "access-" + publicToken, ItemID: "item-" + publicToken}, nil
}

func (m *MockClient) GetItem(ctx context.Context, accessToken string) (*plaid.Item, error) {
	if m.GetItemFunc != nil {
		return m.GetItemFunc(ctx, accessToken)
	}
	return &plaid.Item{InstitutionID: plaid.NewText("ins_1")}, nil
}

func (m *MockClient) GetInstitutionByID(ctx context.Context, institutionID string) (*plaid.Institution, error) {
	if m.GetInstitutionByIDFunc != nil {
		return m.GetInstitutionByIDFunc(ctx, institutionID)
	}
	return &plaid.Institution{InstitutionID: institutionID, Name: "Bank " + institutionID}, nil
}

func (m *MockClient) RemoveItem(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	m.removed = append(m.removed, accessToken)
	m.mu.Unlock()
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, accessToken)
	}
	return nil
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockClient) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]plaid.Transaction, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accessToken, start, end)
	}
	return nil, nil
}

func (m *MockClient) GetHoldings(ctx context.Context, accessToken string) (*plaid.Holdings, error) {
	if m.GetHoldingsFunc != nil {
		return m.GetHoldingsFunc(ctx, accessToken)
	}
	return &plaid.Holdings{}, nil
}

// Removed returns the access tokens passed to RemoveItem, in call order.
func (m *MockClient) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}
