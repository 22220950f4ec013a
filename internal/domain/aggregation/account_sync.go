package aggregation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"finsync/internal/domain/account"
	"finsync/internal/domain/item"
	"finsync/internal/domain/normalize"
	"finsync/internal/infrastructure/plaid"
)

// AccountSyncService handles syncing accounts from the aggregation API
type AccountSyncService struct {
	client     plaid.ClientInterface
	items      item.Repository
	accounts   account.Repository
	normalizer *normalize.Normalizer
	log        zerolog.Logger
}

func NewAccountSyncService(
	client plaid.ClientInterface,
	items item.Repository,
	accounts account.Repository,
	normalizer *normalize.Normalizer,
	log zerolog.Logger,
) *AccountSyncService {
	return &AccountSyncService{
		client:     client,
		items:      items,
		accounts:   accounts,
		normalizer: normalizer,
		log:        log.With().Str("component", "account_sync").Logger(),
	}
}

// Sync fetches and persists new accounts for every item of the user. A
// *plaid.ProviderError or a persistence failure aborts the whole call.
func (s *AccountSyncService) Sync(ctx context.Context, userID int64) (res *Result[*account.Account], err error) {
	ctx, span := startSync(ctx, "accounts", userID)
	defer func() { endSync(span, err) }()

	items, err := s.items.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	res = newResult[*account.Account](userID)
	log := s.log.With().Int64("user_id", userID).Logger()
	p := pipeline[account.NewAccount, account.Key, *account.Account]{
		entity: "accounts",
		keyOf:  account.NewAccount.Key,
		exists: s.accounts.Exists,
		insert: s.accounts.InsertBatch,
		describe: func(e *zerolog.Event, a account.NewAccount) *zerolog.Event {
			return e.Str("account_id", a.AccountID)
		},
	}

	for _, it := range items {
		raw, err := s.client.GetAccounts(ctx, it.AccessToken)
		if err != nil {
			return nil, err
		}
		records := s.normalizer.Accounts(it.ID, raw)
		if err := p.run(ctx, log, it, records, res); err != nil {
			return nil, err
		}
		res.ItemsSynced++
	}

	log.Info().Int("items", res.ItemsSynced).Int("persisted", res.Persisted).Msg("account sync complete")
	return res, nil
}

func startSync(ctx context.Context, entity string, userID int64) (context.Context, trace.Span) {
	return syncTracer.Start(ctx, "sync."+entity, trace.WithAttributes(
		attribute.String("sync.entity", entity),
		attribute.Int64("user.id", userID),
	))
}

func endSync(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
