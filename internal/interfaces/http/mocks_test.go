package http

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/aggregation"
	"finsync/internal/domain/institution"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/item"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/shared/middleware"
)

var testLog = zerolog.Nop()

func withUser(r *http.Request, userID int64) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

// MockAccountRepo implements account.Repository for testing
type MockAccountRepo struct {
	GetByIDFunc      func(ctx context.Context, id string) (*account.Account, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*account.Account, error)
}

func (m *MockAccountRepo) FindByItemAndExternalID(ctx context.Context, itemID, accountID string) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) Exists(ctx context.Context, key account.Key) (bool, error) {
	return false, nil
}

func (m *MockAccountRepo) InsertBatch(ctx context.Context, accounts []account.NewAccount) ([]*account.Account, error) {
	return nil, nil
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

// MockInstitutionRepo implements institution.Repository for testing
type MockInstitutionRepo struct {
	GetByAccountIDFunc func(ctx context.Context, accountID string) (*institution.Institution, error)
}

func (m *MockInstitutionRepo) FindOrCreate(ctx context.Context, institutionID, name string) (*institution.Institution, error) {
	return &institution.Institution{ID: "inst-" + institutionID, InstitutionID: institutionID, Name: name}, nil
}

func (m *MockInstitutionRepo) GetByID(ctx context.Context, id string) (*institution.Institution, error) {
	return nil, institution.ErrInstitutionNotFound
}

func (m *MockInstitutionRepo) GetByAccountID(ctx context.Context, accountID string) (*institution.Institution, error) {
	if m.GetByAccountIDFunc != nil {
		return m.GetByAccountIDFunc(ctx, accountID)
	}
	return nil, institution.ErrInstitutionNotFound
}

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	GetByIDFunc      func(ctx context.Context, id string) (*transaction.Transaction, error)
	ListByUserIDFunc func(ctx context.Context, userID int64, r transaction.DateRange) ([]*transaction.Transaction, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockTransactionRepo) Exists(ctx context.Context, transactionID string) (bool, error) {
	return false, nil
}

func (m *MockTransactionRepo) InsertBatch(ctx context.Context, txs []transaction.NewTransaction) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionRepo) ListByUserID(ctx context.Context, userID int64, r transaction.DateRange) ([]*transaction.Transaction, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, r)
	}
	return nil, nil
}

func (m *MockTransactionRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockInvestmentRepo implements investment.Repository for testing
type MockInvestmentRepo struct {
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*investment.Investment, error)
}

func (m *MockInvestmentRepo) Exists(ctx context.Context, key investment.Key) (bool, error) {
	return false, nil
}

func (m *MockInvestmentRepo) InsertBatch(ctx context.Context, investments []investment.NewInvestment) ([]*investment.Investment, error) {
	return nil, nil
}

func (m *MockInvestmentRepo) ListByUserID(ctx context.Context, userID int64) ([]*investment.Investment, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

// MockLinker implements Linker for testing
type MockLinker struct {
	CreateLinkTokenFunc func(ctx context.Context, userID int64, itemID string) (*plaid.LinkToken, error)
	LinkFunc            func(ctx context.Context, userID int64, publicToken string) (*item.Item, error)
	UnlinkFunc          func(ctx context.Context, userID int64, id string) error
	ItemsFunc           func(ctx context.Context, userID int64) ([]*item.Item, error)
}

func (m *MockLinker) CreateLinkToken(ctx context.Context, userID int64, itemID string) (*plaid.LinkToken, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID, itemID)
	}
	return &plaid.LinkToken{LinkToken: "link-sandbox-1"}, nil
}

func (m *MockLinker) Link(ctx context.Context, userID int64, publicToken string) (*item.Item, error) {
	if m.LinkFunc != nil {
		return m.LinkFunc(ctx, userID, publicToken)
	}
	return &item.Item{ID: "item-1", UserID: userID}, nil
}

func (m *MockLinker) Unlink(ctx context.Context, userID int64, id string) error {
	if m.UnlinkFunc != nil {
		return m.UnlinkFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockLinker) Items(ctx context.Context, userID int64) ([]*item.Item, error) {
	if m.ItemsFunc != nil {
		return m.ItemsFunc(ctx, userID)
	}
	return nil, nil
}

type accountSyncFunc func(ctx context.Context, userID int64) (*aggregation.Result[*account.Account], error)

func (f accountSyncFunc) Sync(ctx context.Context, userID int64) (*aggregation.Result[*account.Account], error) {
	return f(ctx, userID)
}

type transactionSyncFunc func(ctx context.Context, userID int64, r transaction.DateRange) (*aggregation.Result[*transaction.Transaction], error)

func (f transactionSyncFunc) Sync(ctx context.Context, userID int64, r transaction.DateRange) (*aggregation.Result[*transaction.Transaction], error) {
	return f(ctx, userID, r)
}

type investmentSyncFunc func(ctx context.Context, userID int64) (*aggregation.Result[*investment.Investment], error)

func (f investmentSyncFunc) Sync(ctx context.Context, userID int64) (*aggregation.Result[*investment.Investment], error) {
	return f(ctx, userID)
}
