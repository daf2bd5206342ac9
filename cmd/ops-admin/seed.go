package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/resellkit/ops-api/internal/bootstrap"
	"github.com/resellkit/ops-api/internal/devseed"
)

const defaultSeedTimeout = 1 * time.Minute

type seedOptions struct {
	Timeout     time.Duration
	AllowRemote bool
}

func parseSeedFlags(args []string) (seedOptions, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := seedOptions{Timeout: defaultSeedTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultSeedTimeout,
		"Maximum duration to wait for seeding to complete")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false,
		"Permit seeding a database that is not on localhost")

	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}
	return opts, nil
}

// guardRemoteSeed refuses to write demo rows into anything that does not look
// like a local development database unless the operator opts in explicitly.
func guardRemoteSeed(cmdCtx *commandContext, allowRemote bool) error {
	host := cmdCtx.Config.Postgres.Host
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return nil
	}
	if allowRemote {
		cmdCtx.Logger.Warn("seeding a remote database", "host", host)
		return nil
	}
	return fmt.Errorf("refusing to seed remote database host %q; pass -allow-remote to override", host)
}

func runSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedFlags(args)
	if err != nil {
		return err
	}

	if guardErr := guardRemoteSeed(cmdCtx, opts.AllowRemote); guardErr != nil {
		return guardErr
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := connectAdminDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeQuietly(cmdCtx, db)

	cmdCtx.Logger.Info("ensuring database migrations are current")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("seeding development data")
	if seedErr := devseed.Run(ctx, devseed.NewRepos(db), cmdCtx.Logger); seedErr != nil {
		return fmt.Errorf("seed data: %w", seedErr)
	}

	cmdCtx.Logger.Info("database seeding completed successfully")
	return nil
}
