package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/resellkit/ops-api/internal/data"
	"github.com/resellkit/ops-api/internal/service"
)

const defaultReapTimeout = 2 * time.Minute

type reapOptions struct {
	Timeout       time.Duration
	JobMaxAge     time.Duration
	SessionMaxAge time.Duration
}

func parseReapFlags(args []string, cmdCtx *commandContext) (reapOptions, error) {
	fs := flag.NewFlagSet("reap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := reapOptions{Timeout: defaultReapTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultReapTimeout,
		"Maximum duration to wait for the sweep to complete")
	fs.DurationVar(&opts.JobMaxAge, "job-max-age", cmdCtx.Config.Reaper.JobMaxAge,
		"Delete terminal jobs older than this")
	fs.DurationVar(&opts.SessionMaxAge, "session-max-age", cmdCtx.Config.Reaper.SessionMaxAge,
		"Delete terminal validation sessions older than this")

	if err := fs.Parse(args); err != nil {
		return reapOptions{}, err
	}
	if opts.JobMaxAge <= 0 || opts.SessionMaxAge <= 0 {
		return reapOptions{}, errors.New("max-age values must be positive")
	}
	return opts, nil
}

func runReap(cmdCtx *commandContext, args []string) error {
	opts, err := parseReapFlags(args, cmdCtx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := connectAdminDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeQuietly(cmdCtx, db)

	reaperCfg := cmdCtx.Config.Reaper
	reaperCfg.JobMaxAge = opts.JobMaxAge
	reaperCfg.SessionMaxAge = opts.SessionMaxAge

	reaper := service.MustNewReaperService(service.ReaperServiceOptions{
		Repo:   data.NewReaperRepo(db, data.RepoConfig{}),
		Config: reaperCfg,
		Logger: cmdCtx.Logger,
	})

	cmdCtx.Logger.Info("running retention sweep",
		"job_max_age", opts.JobMaxAge,
		"session_max_age", opts.SessionMaxAge,
	)
	return reaper.RunOnce(ctx)
}
