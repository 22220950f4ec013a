package aggregation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/item"
	"finsync/internal/domain/normalize"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/plaid"
)

// TransactionSyncService handles syncing transactions from the aggregation API
type TransactionSyncService struct {
	client       plaid.ClientInterface
	items        item.Repository
	accounts     account.Repository
	transactions transaction.Repository
	normalizer   *normalize.Normalizer
	log          zerolog.Logger
}

func NewTransactionSyncService(
	client plaid.ClientInterface,
	items item.Repository,
	accounts account.Repository,
	transactions transaction.Repository,
	normalizer *normalize.Normalizer,
	log zerolog.Logger,
) *TransactionSyncService {
	return &TransactionSyncService{
		client:       client,
		items:        items,
		accounts:     accounts,
		transactions: transactions,
		normalizer:   normalizer,
		log:          log.With().Str("component", "transaction_sync").Logger(),
	}
}

// Sync fetches transactions within r for every item of the user and persists
// those not yet stored. Transactions whose account has not been synced are
// skipped.
func (s *TransactionSyncService) Sync(ctx context.Context, userID int64, r transaction.DateRange) (res *Result[*transaction.Transaction], err error) {
	ctx, span := startSync(ctx, "transactions", userID)
	defer func() { endSync(span, err) }()

	items, err := s.items.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	res = newResult[*transaction.Transaction](userID)
	log := s.log.With().Int64("user_id", userID).Logger()
	p := pipeline[transaction.NewTransaction, string, *transaction.Transaction]{
		entity: "transactions",
		keyOf:  transaction.NewTransaction.Key,
		exists: s.transactions.Exists,
		insert: s.transactions.InsertBatch,
		describe: func(e *zerolog.Event, t transaction.NewTransaction) *zerolog.Event {
			return e.Str("transaction_id", t.TransactionID)
		},
	}

	for _, it := range items {
		raw, err := s.client.GetTransactions(ctx, it.AccessToken, r.Start, r.End)
		if err != nil {
			return nil, err
		}
		resolver := normalize.ItemAccounts{Repo: s.accounts, ItemID: it.ID}
		records := s.normalizer.Transactions(ctx, it.ItemID, resolver, raw)
		if err := p.run(ctx, log, it, records, res); err != nil {
			return nil, err
		}
		res.ItemsSynced++
	}

	log.Info().Int("items", res.ItemsSynced).Int("persisted", res.Persisted).Msg("transaction sync complete")
	return res, nil
}
