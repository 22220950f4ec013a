package aggregation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/item"
	"finsync/internal/domain/normalize"
	"finsync/internal/infrastructure/plaid"
)

// InvestmentSyncService handles syncing investment holdings
type InvestmentSyncService struct {
	client      plaid.ClientInterface
	items       item.Repository
	accounts    account.Repository
	investments investment.Repository
	normalizer  *normalize.Normalizer
	log         zerolog.Logger
}

func NewInvestmentSyncService(
	client plaid.ClientInterface,
	items item.Repository,
	accounts account.Repository,
	investments investment.Repository,
	normalizer *normalize.Normalizer,
	log zerolog.Logger,
) *InvestmentSyncService {
	return &InvestmentSyncService{
		client:      client,
		items:       items,
		accounts:    accounts,
		investments: investments,
		normalizer:  normalizer,
		log:         log.With().Str("component", "investment_sync").Logger(),
	}
}

// Sync persists holdings not yet stored for (account, security).
func (s *InvestmentSyncService) Sync(ctx context.Context, userID int64) (res *Result[*investment.Investment], err error) {
	ctx, span := startSync(ctx, "investments", userID)
	defer func() { endSync(span, err) }()

	items, err := s.items.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	res = newResult[*investment.Investment](userID)
	log := s.log.With().Int64("user_id", userID).Logger()
	p := pipeline[investment.NewInvestment, investment.Key, *investment.Investment]{
		entity: "investments",
		keyOf:  investment.NewInvestment.Key,
		exists: s.investments.Exists,
		insert: s.investments.InsertBatch,
		describe: func(e *zerolog.Event, n investment.NewInvestment) *zerolog.Event {
			return e.Str("security_id", n.SecurityID)
		},
	}

	for _, it := range items {
		holdings, err := s.client.GetHoldings(ctx, it.AccessToken)
		if err != nil {
			return nil, err
		}
		resolver := normalize.ItemAccounts{Repo: s.accounts, ItemID: it.ID}
		records := s.normalizer.Holdings(ctx, it.ItemID, resolver, holdings.Holdings, holdings.Securities)
		if err := p.run(ctx, log, it, records, res); err != nil {
			return nil, err
		}
		res.ItemsSynced++
	}

	log.Info().Int("items", res.ItemsSynced).Int("persisted", res.Persisted).Msg("investment sync complete")
	return res, nil
}
