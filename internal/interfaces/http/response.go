package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/institution"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/item"
	"finsync/internal/domain/store"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/shared/middleware"
)

// Bodies clients match on verbatim.
const (
	msgItemExists          = "Item for Institution Exists for User"
	msgNoNewAccounts       = "No New Accounts to Save From Plaid"
	msgNoNewTransactions   = "No New Transactions to Save From Plaid"
	msgNoNewInvestments    = "No New Investment Accounts to Save From Plaid"
	msgRecordAlreadyExists = "Record already exists"
)

type providerErrorBody struct {
	Error *plaid.ProviderError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessage writes a bare JSON string.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, msg)
}

// requireUser reads the caller set by middleware.Auth, answering 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

func methodAllowed(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeError maps domain and provider errors onto status codes. Unknown
// errors are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var perr *plaid.ProviderError
	switch {
	case errors.As(err, &perr):
		log.Warn().
			Err(err).
			Str("error_code", perr.ErrorCode).
			Str("request_id", perr.RequestID).
			Msg("aggregation provider error")
		writeJSON(w, perr.HTTPStatus(), providerErrorBody{Error: perr})
	case errors.Is(err, item.ErrItemExists):
		writeMessage(w, http.StatusConflict, msgItemExists)
	case errors.Is(err, store.ErrConflict):
		log.Warn().Err(err).Msg("concurrent write conflict")
		writeMessage(w, http.StatusBadRequest, msgRecordAlreadyExists)
	case errors.Is(err, account.ErrAccountNotFound):
		http.Error(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, transaction.ErrTransactionNotFound):
		http.Error(w, "Transaction not found", http.StatusNotFound)
	case errors.Is(err, item.ErrItemNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
	case errors.Is(err, institution.ErrInstitutionNotFound), errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, account.ErrForbidden),
		errors.Is(err, transaction.ErrForbidden),
		errors.Is(err, item.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, account.ErrInvalidInput),
		errors.Is(err, transaction.ErrInvalidInput),
		errors.Is(err, investment.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Msg("request timed out")
		http.Error(w, "Request timed out", http.StatusGatewayTimeout)
	default:
		log.Error().Err(err).Msg("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
