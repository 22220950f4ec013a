package plaid

import "finsync/internal/shared/config"

// ConfigFrom maps application config onto the client's config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ClientID:     cfg.Plaid.ClientID,
		Secret:       cfg.Plaid.Secret,
		Environment:  cfg.Plaid.Environment,
		APIVersion:   cfg.Plaid.APIVersion,
		ClientName:   cfg.Plaid.ClientName,
		CountryCodes: cfg.Plaid.CountryCodes,
		Language:     cfg.Plaid.Language,
		RedirectURI:  cfg.Plaid.RedirectURI,
		Webhook:      cfg.Plaid.Webhook,
		Products:     cfg.Plaid.Products,
		PageSize:     cfg.Sync.PageSize,
	}
}
