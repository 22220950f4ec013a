package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"finsync/internal/domain/account"
	"finsync/internal/domain/institution"
	"finsync/internal/domain/item"
	"finsync/internal/infrastructure/crypto"
)

const (
	testDSN = "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite"
	testKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, testDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = Migrate(ctx, db)
	require.NoError(t, err)
	return db
}

func newCipher(t *testing.T) *crypto.Encryptor {
	t.Helper()
	enc, err := crypto.NewEncryptor(testKey)
	require.NoError(t, err)
	return enc
}

type fixture struct {
	db           *DB
	institutions *InstitutionRepository
	items        *ItemRepository
	accounts     *AccountRepository
	transactions *TransactionRepository
	investments  *InvestmentRepository
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	return &fixture{
		db:           db,
		institutions: NewInstitutionRepository(db),
		items:        NewItemRepository(db, newCipher(t)),
		accounts:     NewAccountRepository(db),
		transactions: NewTransactionRepository(db),
		investments:  NewInvestmentRepository(db),
	}
}

// linkItem creates an institution and an item for the user.
func (f *fixture) linkItem(t *testing.T, userID int64, externalInstitution string) (*institution.Institution, *item.Item) {
	t.Helper()
	ctx := context.Background()

	inst, err := f.institutions.FindOrCreate(ctx, externalInstitution, "Bank "+externalInstitution)
	require.NoError(t, err)

	it, err := f.items.Create(ctx, item.NewItem{
		UserID:        userID,
		InstitutionID: inst.ID,
		ItemID:        "plaid-" + externalInstitution,
		AccessToken:   "access-sandbox-" + externalInstitution,
	})
	require.NoError(t, err)
	return inst, it
}

func (f *fixture) addAccount(t *testing.T, itemID, externalID string) *account.Account {
	t.Helper()
	saved, err := f.accounts.InsertBatch(context.Background(), []account.NewAccount{{ItemID: itemID, AccountID: externalID}})
	require.NoError(t, err)
	return saved[0]
}
