package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"finsync/internal/domain/transaction"
)

type TransactionHandler struct {
	service *transaction.Service
	log     zerolog.Logger
}

func NewTransactionHandler(service *transaction.Service, log zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		log:     log.With().Str("handler", "transaction").Logger(),
	}
}

// HandleListTransactions returns the caller's transactions, newest first,
// between the start_date and end_date query parameters.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	txs, err := h.service.List(r.Context(), userID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if txs == nil {
		txs = []*transaction.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// HandleTransactionByID serves GET and DELETE on a single transaction.
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		tx, err := h.service.Get(r.Context(), id, userID)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	case http.MethodDelete:
		if err := h.service.Delete(r.Context(), id, userID); err != nil {
			writeError(w, h.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
