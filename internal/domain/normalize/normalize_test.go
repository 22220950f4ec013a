package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/domain/account"
	"finsync/internal/infrastructure/plaid"
)

var today = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

// mapResolver resolves from a fixed map and counts lookups.
type mapResolver struct {
	ids   map[string]string
	err   error
	calls int
}

func (m *mapResolver) ResolveAccount(ctx context.Context, externalAccountID string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	id, ok := m.ids[externalAccountID]
	if !ok {
		return "", account.ErrAccountNotFound
	}
	return id, nil
}

func newNormalizer(buf *bytes.Buffer) *Normalizer {
	n := New(zerolog.New(buf))
	n.now = func() time.Time { return today.Add(15 * time.Hour) }
	return n
}

func decode[T any](t *testing.T, payload string) []T {
	t.Helper()
	var out []T
	require.NoError(t, json.Unmarshal([]byte(payload), &out))
	return out
}

func TestAccounts_MinimalPayload(t *testing.T) {
	n := newNormalizer(&bytes.Buffer{})
	raw := decode[plaid.Account](t, `[{"account_id":"a1"}]`)

	got := n.Accounts("item-1", raw)

	require.Len(t, got, 1)
	assert.Equal(t, account.NewAccount{
		ItemID:    "item-1",
		AccountID: "a1",
	}, got[0])
	assert.NoError(t, got[0].Validate())
}

func TestAccounts_Fields(t *testing.T) {
	var buf bytes.Buffer
	n := newNormalizer(&buf)
	raw := decode[plaid.Account](t, `[
		{"account_id":"a1","name":"Checking","type":"depository","subtype":"checking","balances":{"available":null,"current":120.5}},
		{"account_id":"a2","name":null,"type":7,"subtype":null,"balances":{"available":"3.5","current":null}},
		{"name":"orphan"}
	]`)

	got := n.Accounts("item-1", raw)

	require.Len(t, got, 2)
	assert.Equal(t, "Checking", got[0].Name)
	assert.Equal(t, "depository", got[0].AccountType)
	assert.Equal(t, 0.0, got[0].AvailableBalance)
	assert.Equal(t, 120.5, got[0].CurrentBalance)

	assert.Equal(t, "", got[1].Name)
	assert.Equal(t, "7", got[1].AccountType)
	assert.Equal(t, "", got[1].AccountSubtype)
	assert.Equal(t, 3.5, got[1].AvailableBalance)
	assert.Equal(t, 0.0, got[1].CurrentBalance)

	assert.Contains(t, buf.String(), "account missing account_id")
}

func TestTransactions_Categories(t *testing.T) {
	n := newNormalizer(&bytes.Buffer{})
	resolver := &mapResolver{ids: map[string]string{"a1": "acc-1"}}

	tests := []struct {
		name         string
		payload      string
		wantPrimary  string
		wantDetailed string
	}{
		{"personal finance category", `{"personal_finance_category":{"primary":"FOOD_AND_DRINK","detailed":"FOOD_AND_DRINK_COFFEE"},"category":["Food"]}`, "FOOD_AND_DRINK", "FOOD_AND_DRINK_COFFEE"},
		{"two legacy categories", `{"category":["Food and Drink","Restaurants","Coffee"]}`, "Food and Drink", "Restaurants"},
		{"one legacy category", `{"category":["Transfer"]}`, "Transfer", ""},
		{"empty legacy categories", `{"category":[]}`, "", ""},
		{"null categories", `{"category":null}`, "", ""},
		{"no categories", `{}`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tx plaid.Transaction
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &tx))
			tx.TransactionID, tx.AccountID = plaid.NewText("t1"), plaid.NewText("a1")

			got := n.Transactions(context.Background(), "item-1", resolver, []plaid.Transaction{tx})

			require.Len(t, got, 1)
			assert.Equal(t, tt.wantPrimary, got[0].PrimaryCategory)
			assert.Equal(t, tt.wantDetailed, got[0].DetailedCategory)
		})
	}
}

func TestTransactions_DefaultsAndSkips(t *testing.T) {
	var buf bytes.Buffer
	n := newNormalizer(&buf)
	resolver := &mapResolver{ids: map[string]string{"a1": "acc-1"}}
	raw := decode[plaid.Transaction](t, `[
		{"transaction_id":"t1","account_id":"a1","amount":-4.5,"date":"2024-01-02","name":"Coffee","payment_channel":"in store"},
		{"transaction_id":"t2","account_id":"a1"},
		{"transaction_id":"t3","account_id":"a1","date":"02/01/2024"},
		{"transaction_id":"t4","account_id":"unknown"},
		{"transaction_id":"t5","account_id":"unknown"},
		{"account_id":"a1","amount":1}
	]`)

	got := n.Transactions(context.Background(), "item-1", resolver, raw)

	require.Len(t, got, 3)
	assert.Equal(t, "acc-1", got[0].AccountID)
	assert.Equal(t, -4.5, got[0].Amount)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, "in store", got[0].PaymentChannel)

	assert.Equal(t, 0.0, got[1].Amount)
	assert.Equal(t, today, got[1].Date)
	assert.Equal(t, "", got[1].Name)

	assert.Equal(t, today, got[2].Date)

	assert.Equal(t, 2, resolver.calls, "lookups are cached per call, misses included")
	logs := buf.String()
	assert.Contains(t, logs, "unparseable date")
	assert.Contains(t, logs, "account not found")
	assert.Contains(t, logs, "missing required fields")
}

func TestTransactions_ResolverFailureSkips(t *testing.T) {
	var buf bytes.Buffer
	n := newNormalizer(&buf)
	resolver := &mapResolver{err: errors.New("connection refused")}
	raw := decode[plaid.Transaction](t, `[{"transaction_id":"t1","account_id":"a1"}]`)

	got := n.Transactions(context.Background(), "item-1", resolver, raw)

	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "account lookup failed")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestHoldings(t *testing.T) {
	var buf bytes.Buffer
	n := newNormalizer(&buf)
	resolver := &mapResolver{ids: map[string]string{"inv1": "acc-inv"}}
	holdings := decode[plaid.Holding](t, `[
		{"account_id":"inv1","security_id":"s1","institution_price":10.5,"institution_price_as_of":"2024-04-30","cost_basis":8,"quantity":3},
		{"account_id":"inv1","security_id":"s2"},
		{"account_id":"inv1"},
		{"account_id":"gone","security_id":"s1"},
		{"security_id":"s1"}
	]`)
	securities := decode[plaid.Security](t, `[
		{"security_id":"s1","name":"Acme Corp","ticker_symbol":"ACME"},
		{"security_id":"s2","name":"Cash","ticker_symbol":null}
	]`)

	got := n.Holdings(context.Background(), "item-1", resolver, holdings, securities)

	require.Len(t, got, 3)
	assert.Equal(t, "acc-inv", got[0].AccountID)
	assert.Equal(t, "Acme Corp", got[0].SecurityName)
	assert.Equal(t, "ACME", got[0].SecurityTicker)
	assert.Equal(t, 10.5, got[0].Price)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), got[0].PriceAsOf)

	assert.Equal(t, "Cash", got[1].SecurityName)
	assert.Equal(t, "", got[1].SecurityTicker)
	assert.Equal(t, today, got[1].PriceAsOf)
	assert.Equal(t, 0.0, got[1].Quantity)

	assert.Equal(t, "", got[2].SecurityID)
	assert.Equal(t, "", got[2].SecurityName)

	assert.Contains(t, buf.String(), "holding missing account_id")
}

type stubAccountRepo struct {
	account.Repository
	itemID string
}

func (s stubAccountRepo) FindByItemAndExternalID(ctx context.Context, itemID, accountID string) (*account.Account, error) {
	if itemID != s.itemID || accountID != "a1" {
		return nil, account.ErrAccountNotFound
	}
	return &account.Account{ID: "acc-1"}, nil
}

func TestItemAccounts_ScopedToItem(t *testing.T) {
	repo := stubAccountRepo{itemID: "item-1"}

	id, err := ItemAccounts{Repo: repo, ItemID: "item-1"}.ResolveAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)

	_, err = ItemAccounts{Repo: repo, ItemID: "item-2"}.ResolveAccount(context.Background(), "a1")
	assert.True(t, errors.Is(err, account.ErrAccountNotFound))
}
