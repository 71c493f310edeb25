package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/bucketsync/internal/bitbucket"
	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	"github.com/alexisbeaulieu97/bucketsync/internal/logger"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
	"github.com/alexisbeaulieu97/bucketsync/internal/reconcile"
	"github.com/alexisbeaulieu97/bucketsync/internal/render"
	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

// execute reconciles runs in order, stopping at the first failure, and
// renders every outcome produced so far.
func execute(cmd *cobra.Command, flags *rootFlags, conn config.Connection, runs []config.Run, batch bool) error {
	format, err := render.ParseFormat(flags.output)
	if err != nil {
		return newCommandError("render output", "parsing --output", err, "Use one of json, text or table.")
	}
	renderer, err := render.New(format, render.Options{
		Color: format != render.FormatJSON && isTerminal(cmd.OutOrStdout()),
		Batch: batch,
	})
	if err != nil {
		return newCommandError("render output", "selecting renderer", err, "Use one of json, text or table.")
	}

	log, err := newRunLogger(cmd, flags, conn, runs)
	if err != nil {
		return newCommandError("configure logging", "creating logger", err, "Report this issue.")
	}

	settings := flags.settings()
	if len(runs) > 0 {
		settings = runs[0].Settings
	}
	client := bitbucket.NewClient(bitbucket.Options{
		BaseURL:  conn.APIBaseURL(),
		Username: conn.Username,
		Password: conn.Password,
		Timeout:  time.Duration(settings.TimeoutSeconds()) * time.Second,
		Logger:   log,
	})

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(baseCtx, os.Interrupt)
	defer stop()

	outcomes := make([]model.Outcome, 0, len(runs))
	var runErr error
	for _, run := range runs {
		outcome, err := reconcileOne(ctx, run, client, log)
		outcomes = append(outcomes, outcome)
		if err != nil {
			runErr = newCommandError("reconcile", run.Resource.String(), err, suggestionFor(err))
			break
		}
	}

	if err := renderer.Render(cmd.OutOrStdout(), outcomes); err != nil {
		return newCommandError("render output", "writing results", err, "Check that stdout is writable.")
	}
	return runErr
}

func reconcileOne(ctx context.Context, run config.Run, client *bitbucket.Client, log *logger.Logger) (model.Outcome, error) {
	if err := config.ValidateRun(run); err != nil {
		return failedOutcome(run, err), err
	}

	r, err := reconcile.New(run, reconcile.Deps{Transport: client, Logger: log})
	if err != nil {
		return failedOutcome(run, err), err
	}

	return reconcile.Run(ctx, r, reconcile.Options{CheckMode: run.Settings.CheckMode, Logger: log})
}

func failedOutcome(run config.Run, err error) model.Outcome {
	kind := syncerrors.Kind(err)
	if kind == syncerrors.KindExecution {
		kind = syncerrors.KindInternal
	}
	return model.Outcome{
		Kind:      model.Kind(run.Resource.Kind),
		Key:       run.Resource.NaturalKey(),
		CheckMode: run.Settings.CheckMode,
		Msg:       err.Error(),
		Failed:    true,
		ErrorKind: kind,
	}
}

func newRunLogger(cmd *cobra.Command, flags *rootFlags, conn config.Connection, runs []config.Run) (*logger.Logger, error) {
	level := "warn"
	if flags.verbose {
		level = "debug"
	}

	secrets := []string{conn.Password}
	for _, run := range runs {
		secrets = append(secrets, run.Secrets()...)
	}

	errOut := cmd.ErrOrStderr()
	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: isTerminal(errOut),
		Writer:        errOut,
		Secrets:       secrets,
	})
	if err != nil {
		return nil, err
	}

	return log.WithFields(map[string]any{
		"run_id":    uuid.NewString(),
		"workspace": conn.Workspace,
		"repo_slug": conn.RepoSlug,
	}), nil
}

func isTerminal(w io.Writer) bool {
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
