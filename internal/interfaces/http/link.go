package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"finsync/internal/domain/item"
	"finsync/internal/infrastructure/plaid"
)

// Linker is satisfied by *item.Registry.
type Linker interface {
	CreateLinkToken(ctx context.Context, userID int64, itemID string) (*plaid.LinkToken, error)
	Link(ctx context.Context, userID int64, publicToken string) (*item.Item, error)
	Unlink(ctx context.Context, userID int64, id string) error
	Items(ctx context.Context, userID int64) ([]*item.Item, error)
}

type LinkHandler struct {
	registry Linker
	log      zerolog.Logger
}

func NewLinkHandler(registry Linker, log zerolog.Logger) *LinkHandler {
	return &LinkHandler{
		registry: registry,
		log:      log.With().Str("handler", "link").Logger(),
	}
}

type linkTokenRequest struct {
	ItemID string `json:"item_id"`
}

// exchangeRequest accepts both spellings the mobile and web clients send.
type exchangeRequest struct {
	PublicToken      string `json:"public_token"`
	PublicTokenCamel string `json:"publicToken"`
}

func (r exchangeRequest) token() string {
	if r.PublicToken != "" {
		return r.PublicToken
	}
	return r.PublicTokenCamel
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// HandleCreateLinkToken issues a link token. With item_id in the body the
// token opens update mode for that existing item.
func (h *LinkHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req linkTokenRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.registry.CreateLinkToken(r.Context(), userID, strings.TrimSpace(req.ItemID))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

// HandleExchange swaps a public token for an access token and registers the
// item with its institution.
func (h *LinkHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req exchangeRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	publicToken := strings.TrimSpace(req.token())
	if publicToken == "" {
		http.Error(w, "public_token is required", http.StatusBadRequest)
		return
	}

	it, err := h.registry.Link(r.Context(), userID, publicToken)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// HandleListItems returns the caller's linked items.
func (h *LinkHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.registry.Items(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if items == nil {
		items = []*item.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleDeleteItem unlinks an item; its accounts, transactions and holdings
// go with it.
func (h *LinkHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodDelete) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	if err := h.registry.Unlink(r.Context(), userID, id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
