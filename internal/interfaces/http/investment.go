package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"finsync/internal/domain/investment"
)

type InvestmentHandler struct {
	service *investment.Service
	log     zerolog.Logger
}

func NewInvestmentHandler(service *investment.Service, log zerolog.Logger) *InvestmentHandler {
	return &InvestmentHandler{
		service: service,
		log:     log.With().Str("handler", "investment").Logger(),
	}
}

func (h *InvestmentHandler) HandleListInvestments(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	investments, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if investments == nil {
		investments = []*investment.Investment{}
	}
	writeJSON(w, http.StatusOK, investments)
}
