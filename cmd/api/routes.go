package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"finsync/internal/shared/config"
	"finsync/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", deps.HealthHandler.HandleHealth)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.NoStore(h))
	}

	// Link flow
	mux.Handle("/api/link/token", protect(deps.LinkHandler.HandleCreateLinkToken))
	mux.Handle("/api/link/exchange", protect(deps.LinkHandler.HandleExchange))
	mux.Handle("/api/items/", protect(deps.LinkHandler.HandleListItems))
	mux.Handle("/api/items/{id}", protect(deps.LinkHandler.HandleDeleteItem))

	// Sync from the aggregation provider
	mux.Handle("/api/sync/accounts", protect(deps.SyncHandler.HandleSyncAccounts))
	mux.Handle("/api/sync/transactions", protect(deps.SyncHandler.HandleSyncTransactions))
	mux.Handle("/api/sync/investments", protect(deps.SyncHandler.HandleSyncInvestments))

	// Reads
	mux.Handle("/api/accounts/", protect(deps.AccountHandler.HandleListAccounts))
	mux.Handle("/api/accounts/{id}", protect(deps.AccountHandler.HandleGetAccount))
	mux.Handle("/api/accounts/{id}/institution", protect(deps.AccountHandler.HandleGetAccountInstitution))
	mux.Handle("/api/transactions/", protect(deps.TransactionHandler.HandleListTransactions))
	mux.Handle("/api/transactions/{id}", protect(deps.TransactionHandler.HandleTransactionByID))
	mux.Handle("/api/investments/", protect(deps.InvestmentHandler.HandleListInvestments))

	// Apply global middleware
	handler := middleware.Logging(log)(middleware.CORS(cfg.Server.AllowedHosts)(mux))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		log.Info().Msg("TLS security middleware enabled (HSTS)")
	}

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(middleware.Tracing(handler))
	}

	return handler
}
