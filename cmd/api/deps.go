package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"finsync/internal/domain/account"
	"finsync/internal/domain/aggregation"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/item"
	"finsync/internal/domain/normalize"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/crypto"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/infrastructure/sqlstore"
	httphandlers "finsync/internal/interfaces/http"
	"finsync/internal/shared/auth"
	"finsync/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *sqlstore.DB

	// Handlers
	HealthHandler      *httphandlers.HealthHandler
	LinkHandler        *httphandlers.LinkHandler
	SyncHandler        *httphandlers.SyncHandler
	AccountHandler     *httphandlers.AccountHandler
	TransactionHandler *httphandlers.TransactionHandler
	InvestmentHandler  *httphandlers.InvestmentHandler

	// Auth
	JWT *auth.JWT
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Dependencies, error) {
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", db.Driver()).Msg("connected to database")

	if cfg.Database.AutoMigrate {
		applied, err := sqlstore.Migrate(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Ints64("versions", applied).Msg("migrations applied")
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	plaidClient, err := plaid.NewClient(plaid.ConfigFrom(cfg))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create plaid client: %w", err)
	}

	// Repositories
	institutionRepo := sqlstore.NewInstitutionRepository(db)
	itemRepo := sqlstore.NewItemRepository(db, encryptor)
	accountRepo := sqlstore.NewAccountRepository(db)
	transactionRepo := sqlstore.NewTransactionRepository(db)
	investmentRepo := sqlstore.NewInvestmentRepository(db)

	// Domain services
	registry := item.NewRegistry(plaidClient, itemRepo, institutionRepo, log)
	normalizer := normalize.New(log)
	accountSync := aggregation.NewAccountSyncService(plaidClient, itemRepo, accountRepo, normalizer, log)
	transactionSync := aggregation.NewTransactionSyncService(plaidClient, itemRepo, accountRepo, transactionRepo, normalizer, log)
	investmentSync := aggregation.NewInvestmentSyncService(plaidClient, itemRepo, accountRepo, investmentRepo, normalizer, log)

	windowDays := cfg.Sync.TransactionWindowDays

	return &Dependencies{
		DB:                 db,
		HealthHandler:      httphandlers.NewHealthHandler(db, log),
		LinkHandler:        httphandlers.NewLinkHandler(registry, log),
		SyncHandler:        httphandlers.NewSyncHandler(accountSync, transactionSync, investmentSync, windowDays, log),
		AccountHandler:     httphandlers.NewAccountHandler(account.NewService(accountRepo), institutionRepo, log),
		TransactionHandler: httphandlers.NewTransactionHandler(transaction.NewService(transactionRepo, windowDays), log),
		InvestmentHandler:  httphandlers.NewInvestmentHandler(investment.NewService(investmentRepo), log),
		JWT:                auth.NewJWT(cfg.JWT.Secret),
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
