package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/songdeck/internal/history"
	"github.com/harrison/songdeck/internal/logger"
	"github.com/harrison/songdeck/internal/models"
	"github.com/harrison/songdeck/internal/settings"
)

// app is what every subcommand needs: resolved settings, a console logger
// and the installed models.
type app struct {
	home     string
	settings *settings.Settings
	log      *logger.ConsoleLogger
	out      io.Writer
}

// loadApp resolves the home directory and settings, applying the global
// flags over the settings file.
func loadApp(cmd *cobra.Command) (*app, error) {
	homeFlag, _ := cmd.Flags().GetString("home")
	home, err := settings.Home(homeFlag)
	if err != nil {
		return nil, err
	}

	s, err := settings.LoadSettings(settings.Path(home))
	if err != nil {
		return nil, err
	}

	var (
		logLevelPtr   *string
		maxWorkersPtr *int
		noHistoryPtr  *bool
	)
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}
	if cmd.Flags().Changed("max-workers") {
		v, _ := cmd.Flags().GetInt("max-workers")
		if v >= 0 {
			maxWorkersPtr = &v
		}
	}
	if cmd.Flags().Changed("no-history") {
		v, _ := cmd.Flags().GetBool("no-history")
		noHistoryPtr = &v
	}
	s.MergeWithFlags(logLevelPtr, maxWorkersPtr, noHistoryPtr)
	s.Resolve(home)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &app{
		home:     home,
		settings: s,
		log:      logger.NewConsoleLogger(cmd.ErrOrStderr(), s.LogLevel),
		out:      cmd.OutOrStdout(),
	}, nil
}

// registry returns the builtin models plus user cards from the models
// directory. Cards that fail to parse are skipped with a warning.
func (a *app) registry() (*models.Registry, error) {
	reg, skipped, err := models.Load(a.settings.ModelsDir)
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		a.log.LogWarn(fmt.Sprintf("skipping model card: %v", e))
	}
	return reg, nil
}

// signalContext cancels on SIGINT or SIGTERM so child processes stop.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// record stores run in the history database when history is enabled.
// Failing to record only warns; the run itself already happened.
func (a *app) record(ctx context.Context, run *history.Run) {
	if !a.settings.History.Enabled {
		return
	}
	store, err := history.Open(a.settings.History.DBPath)
	if err != nil {
		a.log.LogWarn(fmt.Sprintf("run history unavailable: %v", err))
		return
	}
	defer store.Close()

	if err := store.Record(ctx, run); err != nil {
		a.log.LogWarn(fmt.Sprintf("could not record run: %v", err))
		return
	}
	if days := a.settings.History.KeepDays; days > 0 {
		if n, err := store.Prune(ctx, time.Now().AddDate(0, 0, -days)); err != nil {
			a.log.LogWarn(fmt.Sprintf("could not prune run history: %v", err))
		} else if n > 0 {
			a.log.LogDebug(fmt.Sprintf("pruned %d runs older than %d days", n, days))
		}
	}
}

// finish stamps run with the outcome of err and records it. Recording
// outlives a cancelled ctx so interrupted runs are still listed.
func (a *app) finish(ctx context.Context, run *history.Run, err error) {
	run.FinishedAt = time.Now()
	run.Status = history.StatusSucceeded
	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
	}
	a.record(context.WithoutCancel(ctx), run)
}

// absConfig returns the absolute path of a configuration argument.
func absConfig(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("config file not found: %s", abs)
	}
	return abs, nil
}
