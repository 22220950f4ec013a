package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"finsync/internal/infrastructure/sqlstore"
)

func runMigrate(args []string) error {
	if len(args) != 1 || (args[0] != "up" && args[0] != "status") {
		return fmt.Errorf("usage: admin migrate up|status")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("driver", db.Driver()).Msg("connected to database")

	if args[0] == "status" {
		statuses, err := sqlstore.Status(ctx, db)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%-8s %05d  %s\n", state, s.Version, s.Source)
		}
		return nil
	}

	applied, err := sqlstore.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("No pending migrations")
		return nil
	}
	for _, v := range applied {
		fmt.Printf("applied %05d\n", v)
	}
	return nil
}
