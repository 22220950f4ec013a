package item

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"finsync/internal/domain/institution"
	"finsync/internal/infrastructure/plaid"
)

// Registry links institutions to users through the provider's token exchange.
type Registry struct {
	client       plaid.ClientInterface
	items        Repository
	institutions institution.Repository
	log          zerolog.Logger
}

func NewRegistry(client plaid.ClientInterface, items Repository, institutions institution.Repository, log zerolog.Logger) *Registry {
	return &Registry{
		client:       client,
		items:        items,
		institutions: institutions,
		log:          log.With().Str("component", "item_registry").Logger(),
	}
}

// CreateLinkToken opens a Link session for the user. With a non-empty itemID
// the session runs in update mode for that item, which must belong to the user.
func (r *Registry) CreateLinkToken(ctx context.Context, userID int64, itemID string) (*plaid.LinkToken, error) {
	req := plaid.LinkTokenRequest{ClientUserID: strconv.FormatInt(userID, 10)}
	if itemID != "" {
		it, err := r.owned(ctx, userID, itemID)
		if err != nil {
			return nil, err
		}
		req.AccessToken = it.AccessToken
	}
	return r.client.CreateLinkToken(ctx, req)
}

// Link exchanges a public token and records the resulting item. Any failure
// after the exchange revokes the new access token, so linking the same
// institution twice returns ErrItemExists and leaves nothing behind upstream.
func (r *Registry) Link(ctx context.Context, userID int64, publicToken string) (*Item, error) {
	exchange, err := r.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	created, err := r.register(ctx, userID, exchange)
	if err != nil {
		r.revoke(ctx, exchange)
		return nil, err
	}

	r.log.Info().
		Int64("user_id", userID).
		Str("item_id", created.ItemID).
		Str("institution_id", created.ExternalInstitutionID).
		Msg("item linked")
	return created, nil
}

func (r *Registry) register(ctx context.Context, userID int64, exchange *plaid.Exchange) (*Item, error) {
	remote, err := r.client.GetItem(ctx, exchange.AccessToken)
	if err != nil {
		return nil, err
	}
	externalID := remote.InstitutionID.String()
	if externalID == "" {
		return nil, &plaid.ProviderError{
			ErrorType:    "ITEM_ERROR",
			ErrorCode:    "INSTITUTION_NOT_RESOLVED",
			ErrorMessage: "item has no institution id",
		}
	}

	remoteInst, err := r.client.GetInstitutionByID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	inst, err := r.institutions.FindOrCreate(ctx, externalID, remoteInst.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to record institution: %w", err)
	}

	exists, err := r.items.ExistsForInstitution(ctx, userID, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing item: %w", err)
	}
	if exists {
		return nil, ErrItemExists
	}

	created, err := r.items.Create(ctx, NewItem{
		UserID:        userID,
		InstitutionID: inst.ID,
		ItemID:        exchange.ItemID,
		AccessToken:   exchange.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	created.ExternalInstitutionID = inst.InstitutionID
	created.InstitutionName = inst.Name
	return created, nil
}

// Unlink removes the item upstream and deletes it locally with everything
// synced under it.
func (r *Registry) Unlink(ctx context.Context, userID int64, id string) error {
	it, err := r.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := r.client.RemoveItem(ctx, it.AccessToken); err != nil {
		r.log.Warn().Err(err).Str("item_id", it.ItemID).Msg("provider item removal failed, deleting locally")
	}

	if err := r.items.Delete(ctx, it.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Items returns the user's items, oldest first.
func (r *Registry) Items(ctx context.Context, userID int64) ([]*Item, error) {
	return r.items.ListByUserID(ctx, userID)
}

func (r *Registry) owned(ctx context.Context, userID int64, id string) (*Item, error) {
	it, err := r.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.UserID != userID {
		return nil, ErrForbidden
	}
	return it, nil
}

// revoke is best effort; the caller's error takes precedence.
func (r *Registry) revoke(ctx context.Context, exchange *plaid.Exchange) {
	if err := r.client.RemoveItem(ctx, exchange.AccessToken); err != nil {
		r.log.Warn().Err(err).Str("item_id", exchange.ItemID).Msg("failed to revoke unused access token")
	}
}
