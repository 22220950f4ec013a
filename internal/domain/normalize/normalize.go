// Package normalize turns provider payloads into domain records with every
// field populated. Records that cannot be placed are skipped and logged.
package normalize

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/plaid"
)

// AccountResolver maps a provider account id to the surrogate id of the
// persisted account within the item being synced. It returns
// account.ErrAccountNotFound when there is none.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, externalAccountID string) (string, error)
}

// ItemAccounts resolves accounts of a single item through the repository.
type ItemAccounts struct {
	Repo   account.Repository
	ItemID string
}

func (r ItemAccounts) ResolveAccount(ctx context.Context, externalAccountID string) (string, error) {
	acc, err := r.Repo.FindByItemAndExternalID(ctx, r.ItemID, externalAccountID)
	if err != nil {
		return "", err
	}
	return acc.ID, nil
}

type Normalizer struct {
	log zerolog.Logger
	now func() time.Time
}

func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{
		log: log.With().Str("component", "normalizer").Logger(),
		now: time.Now,
	}
}

// Accounts normalizes the accounts of one item.
func (n *Normalizer) Accounts(itemID string, raw []plaid.Account) []account.NewAccount {
	out := make([]account.NewAccount, 0, len(raw))
	for _, a := range raw {
		externalID := a.AccountID.String()
		if externalID == "" {
			n.log.Error().Str("item_id", itemID).Msg("account missing account_id, skipped")
			continue
		}

		rec := account.NewAccount{
			ItemID:         itemID,
			AccountID:      externalID,
			Name:           a.Name.String(),
			AccountType:    a.Type.String(),
			AccountSubtype: a.Subtype.String(),
		}
		if a.Balances != nil {
			rec.AvailableBalance = a.Balances.Available.Float()
			rec.CurrentBalance = a.Balances.Current.Float()
		}
		out = append(out, rec)
	}
	return out
}

// Transactions normalizes transactions, resolving each to a persisted account
// of the item.
func (n *Normalizer) Transactions(ctx context.Context, itemID string, resolver AccountResolver, raw []plaid.Transaction) []transaction.NewTransaction {
	resolve := n.cached(itemID, resolver)
	out := make([]transaction.NewTransaction, 0, len(raw))

	for _, t := range raw {
		txID, externalAccount := t.TransactionID.String(), t.AccountID.String()
		if txID == "" || externalAccount == "" {
			n.log.Error().
				Str("item_id", itemID).
				Str("transaction_id", txID).
				Str("account_id", externalAccount).
				Msg("transaction missing required fields, skipped")
			continue
		}

		accountID, ok := resolve(ctx, externalAccount, "transaction_id", txID)
		if !ok {
			continue
		}

		primary, detailed := categories(t)
		out = append(out, transaction.NewTransaction{
			AccountID:        accountID,
			TransactionID:    txID,
			Amount:           t.Amount.Float(),
			Date:             n.date(t.Date, "transaction_id", txID),
			Name:             t.Name.String(),
			PaymentChannel:   t.PaymentChannel.String(),
			PrimaryCategory:  primary,
			DetailedCategory: detailed,
		})
	}
	return out
}

// Holdings normalizes investment holdings, enriching each with the name and
// ticker of its security.
func (n *Normalizer) Holdings(ctx context.Context, itemID string, resolver AccountResolver, holdings []plaid.Holding, securities []plaid.Security) []investment.NewInvestment {
	type securityInfo struct{ name, ticker string }
	lookup := make(map[string]securityInfo, len(securities))
	for _, s := range securities {
		if id := s.SecurityID.String(); id != "" {
			lookup[id] = securityInfo{name: s.Name.String(), ticker: s.TickerSymbol.String()}
		}
	}

	resolve := n.cached(itemID, resolver)
	out := make([]investment.NewInvestment, 0, len(holdings))

	for _, h := range holdings {
		securityID, externalAccount := h.SecurityID.String(), h.AccountID.String()
		if externalAccount == "" {
			n.log.Error().Str("item_id", itemID).Str("security_id", securityID).Msg("holding missing account_id, skipped")
			continue
		}

		accountID, ok := resolve(ctx, externalAccount, "security_id", securityID)
		if !ok {
			continue
		}

		info := lookup[securityID]
		out = append(out, investment.NewInvestment{
			AccountID:      accountID,
			SecurityID:     securityID,
			SecurityName:   info.name,
			SecurityTicker: info.ticker,
			Price:          h.InstitutionPrice.Float(),
			PriceAsOf:      n.date(h.InstitutionPriceAsOf, "security_id", securityID),
			CostBasis:      h.CostBasis.Float(),
			Quantity:       h.Quantity.Float(),
		})
	}
	return out
}

// cached wraps the resolver with a per-call memo, including misses, and does
// the skip logging. The returned func reports false when the record must be
// skipped.
func (n *Normalizer) cached(itemID string, resolver AccountResolver) func(ctx context.Context, externalAccount, recordKey, recordID string) (string, bool) {
	type entry struct {
		id string
		ok bool
	}
	memo := map[string]entry{}

	return func(ctx context.Context, externalAccount, recordKey, recordID string) (string, bool) {
		if e, hit := memo[externalAccount]; hit {
			if !e.ok {
				n.log.Warn().Str("item_id", itemID).Str("account_id", externalAccount).Str(recordKey, recordID).
					Msg("account not found, record skipped")
			}
			return e.id, e.ok
		}

		id, err := resolver.ResolveAccount(ctx, externalAccount)
		switch {
		case err == nil:
			memo[externalAccount] = entry{id: id, ok: true}
			return id, true
		case errors.Is(err, account.ErrAccountNotFound):
			memo[externalAccount] = entry{}
			n.log.Warn().Str("item_id", itemID).Str("account_id", externalAccount).Str(recordKey, recordID).
				Msg("account not found, record skipped")
			return "", false
		default:
			n.log.Error().Err(err).Str("item_id", itemID).Str("account_id", externalAccount).Str(recordKey, recordID).
				Msg("account lookup failed, record skipped")
			return "", false
		}
	}
}

// date parses a YYYY-MM-DD field, falling back to today.
func (n *Normalizer) date(v plaid.Text, recordKey, recordID string) time.Time {
	today := transaction.Truncate(n.now())
	if !v.Valid || v.Value == "" {
		return today
	}
	d, err := time.Parse(time.DateOnly, v.Value)
	if err != nil {
		n.log.Warn().Str(recordKey, recordID).Str("date", v.Value).Msg("unparseable date, using today")
		return today
	}
	return d
}

// categories prefers personal_finance_category and falls back to the legacy
// category hierarchy.
func categories(t plaid.Transaction) (primary, detailed string) {
	if pfc := t.PersonalFinanceCategory; pfc != nil {
		return pfc.Primary.String(), pfc.Detailed.String()
	}
	if len(t.Category) > 0 {
		primary = t.Category[0].String()
	}
	if len(t.Category) > 1 {
		detailed = t.Category[1].String()
	}
	return primary, detailed
}
