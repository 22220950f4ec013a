package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"finsync/internal/shared/config"
	"finsync/internal/shared/logger"
)

const usage = `finsync admin CLI - maintenance commands for the finsync API

Usage:
  admin <command> [options]

Commands:
  migrate up           Apply pending database migrations
  migrate status       Show applied and pending migrations
  sync                 Pull accounts, transactions or holdings for users

Examples:
  # Apply migrations
  admin migrate up

  # Sync accounts for a specific user
  admin sync --user-id=1 --entity=accounts

  # Sync transactions for several users within a range
  admin sync --user-id=1,2,3 --entity=transactions --start-date=2024-01-01 --end-date=2024-01-31

  # Sync everything for every user with linked items
  admin sync --all --entity=all --workers=8 --timeout=1h
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	var err error
	switch command := os.Args[1]; command {
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "sync":
		err = runSync(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("admin command failed")
	}
}

// loadConfig loads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetGlobalLogger(logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}))
	return cfg, nil
}
