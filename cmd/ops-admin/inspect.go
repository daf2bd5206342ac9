package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/resellkit/ops-api/internal/bootstrap"
	"github.com/resellkit/ops-api/internal/data"
	"github.com/resellkit/ops-api/internal/domain/model"
	"github.com/resellkit/ops-api/internal/util"
)

const inspectTimeout = 30 * time.Second

type showJobOptions struct {
	ID    string
	Query string
}

func parseShowJobFlags(args []string) (showJobOptions, error) {
	fs := flag.NewFlagSet("show-job", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts showJobOptions
	fs.StringVar(&opts.ID, "id", "", "Job id to inspect (required)")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression to project over the job JSON")

	if err := fs.Parse(args); err != nil {
		return showJobOptions{}, err
	}
	if opts.ID == "" {
		return showJobOptions{}, errors.New("show-job requires -id")
	}
	return opts, nil
}

func runShowJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseShowJobFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, inspectTimeout)
	defer cancel()

	db, err := connectAdminDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeQuietly(cmdCtx, db)

	job, err := data.NewJobRepo(db, data.RepoConfig{}).GetByID(ctx, opts.ID)
	if err != nil {
		return fmt.Errorf("fetch job %s: %w", opts.ID, err)
	}

	return printProjected(job, opts.Query)
}

type listJobsOptions struct {
	OwnerID string
	Status  string
	Limit   int
}

func parseListJobsFlags(args []string) (listJobsOptions, error) {
	fs := flag.NewFlagSet("list-jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listJobsOptions
	fs.StringVar(&opts.OwnerID, "owner", "", "Owner id to list jobs for (required)")
	fs.StringVar(&opts.Status, "status", "", "Optional status filter (pending|processing|completed|failed)")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum number of jobs to list")

	if err := fs.Parse(args); err != nil {
		return listJobsOptions{}, err
	}
	if opts.OwnerID == "" {
		return listJobsOptions{}, errors.New("list-jobs requires -owner")
	}
	return opts, nil
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseListJobsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, inspectTimeout)
	defer cancel()

	db, err := connectAdminDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeQuietly(cmdCtx, db)

	listOpts := model.JobListOptions{OwnerID: opts.OwnerID, Limit: opts.Limit}
	if opts.Status != "" {
		st := model.JobStatus(opts.Status)
		if !st.Valid() {
			return fmt.Errorf("invalid status %q", opts.Status)
		}
		listOpts.Status = &st
	}

	jobs, err := data.NewJobRepo(db, data.RepoConfig{}).List(ctx, listOpts)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	return printJobTable(jobs)
}

func printJobTable(jobs []*model.Job) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "ID\tTYPE\tSTATUS\tPROGRESS\tAGE\tUPDATED\n"); err != nil {
		return err
	}
	for _, j := range jobs {
		err := writef(w, "%s\t%s\t%s\t%d%%\t%s\t%s\n",
			j.ID, j.Type, j.Status, j.Progress,
			util.FormatDuration(time.Since(j.CreatedAt)),
			j.UpdatedAt.Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return w.Flush()
}

type showSessionOptions struct {
	ID         string
	Query      string
	WithReport bool
}

func parseShowSessionFlags(args []string) (showSessionOptions, error) {
	fs := flag.NewFlagSet("show-session", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts showSessionOptions
	fs.StringVar(&opts.ID, "id", "", "Session id to inspect (required)")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression to project over the session JSON")
	fs.BoolVar(&opts.WithReport, "report", false, "Include the session's report, if one exists")

	if err := fs.Parse(args); err != nil {
		return showSessionOptions{}, err
	}
	if opts.ID == "" {
		return showSessionOptions{}, errors.New("show-session requires -id")
	}
	return opts, nil
}

func runShowSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseShowSessionFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, inspectTimeout)
	defer cancel()

	db, err := connectAdminDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeQuietly(cmdCtx, db)

	session, err := data.NewSessionRepo(db, data.RepoConfig{}).GetByID(ctx, opts.ID)
	if err != nil {
		return fmt.Errorf("fetch session %s: %w", opts.ID, err)
	}

	out := map[string]any{"session": session}
	if opts.WithReport {
		report, reportErr := data.NewReportRepo(db, data.RepoConfig{}).GetBySessionID(ctx, opts.ID)
		switch {
		case reportErr == nil:
			out["report"] = report
		case errors.Is(reportErr, data.ErrReportNotFound):
			out["report"] = nil
		default:
			return fmt.Errorf("fetch report for %s: %w", opts.ID, reportErr)
		}
	}

	return printProjected(out, opts.Query)
}

// printProjected renders a value as indented JSON, optionally projecting it
// through a JMESPath expression first. The value goes through one
// marshal/unmarshal round trip so the query sees JSON field names.
func printProjected(v any, query string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	var doc any
	if err = json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}

	if query != "" {
		doc, err = jmespath.Search(query, doc)
		if err != nil {
			return fmt.Errorf("apply query %q: %w", query, err)
		}
	}

	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("render value: %w", err)
	}
	return writef(os.Stdout, "%s\n", pretty)
}

func connectAdminDB(cmdCtx *commandContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

func closeQuietly(cmdCtx *commandContext, db *sql.DB) {
	if err := db.Close(); err != nil {
		cmdCtx.Logger.Warn("db close failed", "error", err)
	}
}
