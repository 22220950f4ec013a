package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/aggregation"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/transaction"
)

type AccountSyncer interface {
	Sync(ctx context.Context, userID int64) (*aggregation.Result[*account.Account], error)
}

type TransactionSyncer interface {
	Sync(ctx context.Context, userID int64, r transaction.DateRange) (*aggregation.Result[*transaction.Transaction], error)
}

type InvestmentSyncer interface {
	Sync(ctx context.Context, userID int64) (*aggregation.Result[*investment.Investment], error)
}

// SyncHandler exposes the pull-and-persist operations. Each answers 201 with
// the newly persisted records keyed by institution, or 409 when nothing new
// was found.
type SyncHandler struct {
	accounts     AccountSyncer
	transactions TransactionSyncer
	investments  InvestmentSyncer
	windowDays   int
	now          func() time.Time
	log          zerolog.Logger
}

func NewSyncHandler(
	accounts AccountSyncer,
	transactions TransactionSyncer,
	investments InvestmentSyncer,
	windowDays int,
	log zerolog.Logger,
) *SyncHandler {
	return &SyncHandler{
		accounts:     accounts,
		transactions: transactions,
		investments:  investments,
		windowDays:   windowDays,
		now:          time.Now,
		log:          log.With().Str("handler", "sync").Logger(),
	}
}

type syncRangeRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *SyncHandler) HandleSyncAccounts(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.accounts.Sync(r.Context(), userID)
	respondSync(w, h.log, "accounts", res, err, msgNoNewAccounts)
}

// HandleSyncTransactions pulls transactions within the optional start_date
// and end_date of the body, defaulting to the trailing window.
func (h *SyncHandler) HandleSyncTransactions(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req syncRangeRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dr := transaction.ParseDateRange(req.StartDate, req.EndDate, h.now(), h.windowDays)

	res, err := h.transactions.Sync(r.Context(), userID, dr)
	respondSync(w, h.log, "transactions", res, err, msgNoNewTransactions)
}

func (h *SyncHandler) HandleSyncInvestments(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.investments.Sync(r.Context(), userID)
	respondSync(w, h.log, "investments", res, err, msgNoNewInvestments)
}

func respondSync[T any](w http.ResponseWriter, log zerolog.Logger, entity string, res *aggregation.Result[T], err error, emptyMsg string) {
	if err != nil {
		writeError(w, log.With().Str("entity", entity).Logger(), err)
		return
	}

	log.Info().
		Str("entity", entity).
		Int64("user_id", res.UserID).
		Int("items", res.ItemsSynced).
		Int("fetched", res.Fetched).
		Int("persisted", res.Persisted).
		Int("existing", res.Existing).
		Int("duplicates", res.Duplicates).
		Int("invalid", res.Invalid).
		Msg("sync completed")

	if res.Empty() {
		writeMessage(w, http.StatusConflict, emptyMsg)
		return
	}
	writeJSON(w, http.StatusCreated, res.ByInstitution)
}
