package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"finsync/internal/domain/account"
	"finsync/internal/domain/aggregation"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/normalize"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/crypto"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/infrastructure/sqlstore"
	"finsync/internal/shared/config"
)

const (
	entityAccounts     = "accounts"
	entityTransactions = "transactions"
	entityInvestments  = "investments"
	entityAll          = "all"

	defaultWorkers = 4
)

// Accounts come first so transactions and holdings can resolve them.
var entityOrder = []string{entityAccounts, entityTransactions, entityInvestments}

type syncOptions struct {
	userIDs  []int64
	all      bool
	entities []string
	start    string
	end      string
	workers  int
	timeout  time.Duration
}

func parseSyncFlags(args []string) (*syncOptions, error) {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)

	userIDStr := fs.String("user-id", "", "User ID(s) to sync (comma-separated for multiple)")
	allUsers := fs.Bool("all", false, "Sync every user with a linked item")
	entity := fs.String("entity", entityAll, "accounts, transactions, investments or all")
	start := fs.String("start-date", "", "Transaction range start (YYYY-MM-DD)")
	end := fs.String("end-date", "", "Transaction range end (YYYY-MM-DD)")
	workers := fs.Int("workers", defaultWorkers, "Number of users synced concurrently")
	timeout := fs.Duration("timeout", 30*time.Minute, "Timeout for the whole run (e.g., 5m, 1h)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *userIDStr == "" && !*allUsers {
		return nil, errors.New("must specify --user-id or --all")
	}
	if *userIDStr != "" && *allUsers {
		return nil, errors.New("--user-id and --all are mutually exclusive")
	}
	if *workers <= 0 {
		return nil, errors.New("--workers must be positive")
	}

	opts := &syncOptions{
		all:     *allUsers,
		start:   *start,
		end:     *end,
		workers: *workers,
		timeout: *timeout,
	}

	switch *entity {
	case entityAll:
		opts.entities = entityOrder
	case entityAccounts, entityTransactions, entityInvestments:
		opts.entities = []string{*entity}
	default:
		return nil, fmt.Errorf("unknown entity %q", *entity)
	}

	for _, bound := range []string{*start, *end} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, bound); err != nil {
			return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", bound)
		}
	}

	for _, p := range strings.Split(*userIDStr, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid user ID %q", p)
		}
		opts.userIDs = append(opts.userIDs, id)
	}

	return opts, nil
}

// syncers runs one entity sync for one user.
type syncers struct {
	accounts interface {
		Sync(ctx context.Context, userID int64) (*aggregation.Result[*account.Account], error)
	}
	transactions interface {
		Sync(ctx context.Context, userID int64, r transaction.DateRange) (*aggregation.Result[*transaction.Transaction], error)
	}
	investments interface {
		Sync(ctx context.Context, userID int64) (*aggregation.Result[*investment.Investment], error)
	}
}

type userReport struct {
	UserID      int64
	Entity      string
	ItemsSynced int
	Fetched     int
	Persisted   int
	Existing    int
	Duplicates  int
	Invalid     int
	Err         error
}

func report[T any](userID int64, entity string, res *aggregation.Result[T], err error) userReport {
	rep := userReport{UserID: userID, Entity: entity, Err: err}
	if res != nil {
		rep.ItemsSynced = res.ItemsSynced
		rep.Fetched = res.Fetched
		rep.Persisted = res.Persisted
		rep.Existing = res.Existing
		rep.Duplicates = res.Duplicates
		rep.Invalid = res.Invalid
	}
	return rep
}

func (s *syncers) run(ctx context.Context, userID int64, entity string, dr transaction.DateRange) userReport {
	switch entity {
	case entityAccounts:
		res, err := s.accounts.Sync(ctx, userID)
		return report(userID, entity, res, err)
	case entityTransactions:
		res, err := s.transactions.Sync(ctx, userID, dr)
		return report(userID, entity, res, err)
	default:
		res, err := s.investments.Sync(ctx, userID)
		return report(userID, entity, res, err)
	}
}

// syncUsers syncs the entities for each user, at most workers users at a
// time. Entities of one user run in order; a failure stops that user only.
func syncUsers(ctx context.Context, s *syncers, userIDs []int64, entities []string, dr transaction.DateRange, workers int, log zerolog.Logger) []userReport {
	var (
		mu      sync.Mutex
		reports []userReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, uid := range userIDs {
		g.Go(func() error {
			for _, entity := range entities {
				rep := s.run(gctx, uid, entity, dr)

				mu.Lock()
				reports = append(reports, rep)
				mu.Unlock()

				if rep.Err != nil {
					log.Error().Err(rep.Err).Int64("user_id", uid).Str("entity", entity).Msg("sync failed")
					return nil
				}
				log.Info().
					Int64("user_id", uid).
					Str("entity", entity).
					Int("persisted", rep.Persisted).
					Msg("sync completed")
			}
			return nil
		})
	}
	g.Wait()

	slices.SortStableFunc(reports, func(a, b userReport) int {
		if a.UserID != b.UserID {
			if a.UserID < b.UserID {
				return -1
			}
			return 1
		}
		return slices.Index(entityOrder, a.Entity) - slices.Index(entityOrder, b.Entity)
	})
	return reports
}

func runSync(args []string) error {
	opts, err := parseSyncFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	s, itemRepo, err := newSyncers(db, cfg)
	if err != nil {
		return err
	}

	userIDs := opts.userIDs
	if opts.all {
		if userIDs, err = itemRepo.ListUserIDs(ctx); err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		log.Info().Int("users", len(userIDs)).Msg("found users with linked items")
	}
	if len(userIDs) == 0 {
		fmt.Println("No users to process")
		return nil
	}

	dr := transaction.ParseDateRange(opts.start, opts.end, time.Now(), cfg.Sync.TransactionWindowDays)
	log.Info().
		Int("users", len(userIDs)).
		Strs("entities", opts.entities).
		Int("workers", opts.workers).
		Msg("starting sync")
	startTime := time.Now()

	reports := syncUsers(ctx, s, userIDs, opts.entities, dr, opts.workers, log.Logger)
	failed := printReports(reports)

	log.Info().Dur("elapsed", time.Since(startTime)).Msg("sync run finished")
	if failed > 0 {
		return fmt.Errorf("%d sync(s) failed", failed)
	}
	return nil
}

func newSyncers(db *sqlstore.DB, cfg *config.Config) (*syncers, *sqlstore.ItemRepository, error) {
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create encryptor: %w", err)
	}
	client, err := plaid.NewClient(plaid.ConfigFrom(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create plaid client: %w", err)
	}

	itemRepo := sqlstore.NewItemRepository(db, encryptor)
	accountRepo := sqlstore.NewAccountRepository(db)
	normalizer := normalize.New(log.Logger)

	return &syncers{
		accounts:     aggregation.NewAccountSyncService(client, itemRepo, accountRepo, normalizer, log.Logger),
		transactions: aggregation.NewTransactionSyncService(client, itemRepo, accountRepo, sqlstore.NewTransactionRepository(db), normalizer, log.Logger),
		investments:  aggregation.NewInvestmentSyncService(client, itemRepo, accountRepo, sqlstore.NewInvestmentRepository(db), normalizer, log.Logger),
	}, itemRepo, nil
}

// printReports writes one block per user and returns the number of failures.
func printReports(reports []userReport) int {
	failed := 0
	var current int64
	for _, r := range reports {
		if r.UserID != current {
			fmt.Printf("\n=== User %d ===\n", r.UserID)
			current = r.UserID
		}
		if r.Err != nil {
			failed++
			fmt.Printf("  %-13s FAILED: %v\n", r.Entity, r.Err)
			continue
		}
		fmt.Printf("  %-13s items=%d fetched=%d persisted=%d existing=%d duplicates=%d invalid=%d\n",
			r.Entity, r.ItemsSynced, r.Fetched, r.Persisted, r.Existing, r.Duplicates, r.Invalid)
	}
	return failed
}
