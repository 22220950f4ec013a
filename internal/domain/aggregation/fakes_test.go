package aggregation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finsync/internal/domain/account"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/item"
	"finsync/internal/domain/store"
	"finsync/internal/domain/transaction"
)

// The fakes below enforce the natural-key uniqueness constraints the database
// does, rejecting a whole batch on any violation.

type fakeItems struct {
	item.Repository
	items []*item.Item
	err   error
}

func (f *fakeItems) ListByUserID(ctx context.Context, userID int64) ([]*item.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*item.Item
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeAccounts struct {
	mu   sync.Mutex
	rows map[account.Key]*account.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{rows: map[account.Key]*account.Account{}}
}

func (f *fakeAccounts) FindByItemAndExternalID(ctx context.Context, itemID, accountID string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.rows[account.Key{ItemID: itemID, AccountID: accountID}]; ok {
		return a, nil
	}
	return nil, account.ErrAccountNotFound
}

func (f *fakeAccounts) Exists(ctx context.Context, key account.Key) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[key]
	return ok, nil
}

func (f *fakeAccounts) InsertBatch(ctx context.Context, batch []account.NewAccount) ([]*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[account.Key]bool{}
	for _, n := range batch {
		if _, ok := f.rows[n.Key()]; ok || seen[n.Key()] {
			return nil, store.ErrConflict
		}
		seen[n.Key()] = true
	}
	out := make([]*account.Account, 0, len(batch))
	for _, n := range batch {
		a := &account.Account{
			ID:               fmt.Sprintf("acc-%d", len(f.rows)+1),
			ItemID:           n.ItemID,
			AccountID:        n.AccountID,
			Name:             n.Name,
			AccountType:      n.AccountType,
			AccountSubtype:   n.AccountSubtype,
			AvailableBalance: n.AvailableBalance,
			CurrentBalance:   n.CurrentBalance,
			CreatedAt:        time.Now(),
		}
		f.rows[n.Key()] = a
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id string) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}

func (f *fakeAccounts) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	return nil, nil
}

type fakeTransactions struct {
	transaction.Repository
	mu   sync.Mutex
	rows map[string]*transaction.Transaction
	// beforeInsert runs inside InsertBatch, simulating a concurrent writer.
	beforeInsert func()
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{rows: map[string]*transaction.Transaction{}}
}

func (f *fakeTransactions) Exists(ctx context.Context, transactionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[transactionID]
	return ok, nil
}

func (f *fakeTransactions) InsertBatch(ctx context.Context, batch []transaction.NewTransaction) ([]*transaction.Transaction, error) {
	if f.beforeInsert != nil {
		f.beforeInsert()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range batch {
		if _, ok := f.rows[n.TransactionID]; ok {
			return nil, store.ErrConflict
		}
	}
	out := make([]*transaction.Transaction, 0, len(batch))
	for _, n := range batch {
		t := &transaction.Transaction{
			ID:               "tx-" + n.TransactionID,
			AccountID:        n.AccountID,
			TransactionID:    n.TransactionID,
			Amount:           n.Amount,
			Date:             transaction.Date{Time: n.Date},
			Name:             n.Name,
			PaymentChannel:   n.PaymentChannel,
			PrimaryCategory:  n.PrimaryCategory,
			DetailedCategory: n.DetailedCategory,
		}
		f.rows[n.TransactionID] = t
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTransactions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeInvestments struct {
	investment.Repository
	rows map[investment.Key]*investment.Investment
}

func newFakeInvestments() *fakeInvestments {
	return &fakeInvestments{rows: map[investment.Key]*investment.Investment{}}
}

func (f *fakeInvestments) Exists(ctx context.Context, key investment.Key) (bool, error) {
	_, ok := f.rows[key]
	return ok, nil
}

func (f *fakeInvestments) InsertBatch(ctx context.Context, batch []investment.NewInvestment) ([]*investment.Investment, error) {
	out := make([]*investment.Investment, 0, len(batch))
	for _, n := range batch {
		if _, ok := f.rows[n.Key()]; ok {
			return nil, store.ErrConflict
		}
	}
	for _, n := range batch {
		inv := &investment.Investment{
			AccountID:      n.AccountID,
			SecurityID:     n.SecurityID,
			SecurityName:   n.SecurityName,
			SecurityTicker: n.SecurityTicker,
			Quantity:       n.Quantity,
		}
		f.rows[n.Key()] = inv
		out = append(out, inv)
	}
	return out, nil
}
