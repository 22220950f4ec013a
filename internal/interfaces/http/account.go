package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/institution"
)

type AccountHandler struct {
	service      *account.Service
	institutions institution.Repository
	log          zerolog.Logger
}

func NewAccountHandler(service *account.Service, institutions institution.Repository, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service:      service,
		institutions: institutions,
		log:          log.With().Str("handler", "account").Logger(),
	}
}

// HandleListAccounts returns every account across the caller's items.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.service.ListAccountsByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if accounts == nil {
		accounts = []*account.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	acc, err := h.service.GetAccount(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// HandleGetAccountInstitution returns the institution behind an account.
func (h *AccountHandler) HandleGetAccountInstitution(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	acc, err := h.service.GetAccount(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	inst, err := h.institutions.GetByAccountID(r.Context(), acc.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}
