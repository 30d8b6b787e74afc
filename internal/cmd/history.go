package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/songdeck/internal/history"
)

// NewHistoryCommand creates the 'songdeck history' command
func NewHistoryCommand() *cobra.Command {
	var (
		configPath string
		command    string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded prep, train, learncurve, eval and predict runs",
		Long: `List runs recorded in the history database, most recent first.

Use --config to show only runs of one config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := history.Filter{Command: command, Limit: limit}
			if configPath != "" {
				abs, err := filepath.Abs(configPath)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", configPath, err)
				}
				filter.ConfigPath = abs
			}
			return withHistory(cmd, func(a *app, store *history.Store) error {
				runs, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				printRuns(a.out, runs)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Only show runs of this config file")
	cmd.Flags().StringVar(&command, "command", "", "Only show runs of this command")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 = all)")

	cmd.AddCommand(newHistoryShowCommand())
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run with its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(a *app, store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRun(a.out, run)
				return nil
			})
		},
	}
}

// withHistory opens the history database for fn. A database that was never
// created means nothing has been recorded yet.
func withHistory(cmd *cobra.Command, fn func(a *app, store *history.Store) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(a.settings.History.DBPath); os.IsNotExist(err) {
		fmt.Fprintln(a.out, "No runs recorded yet")
		return nil
	}
	store, err := history.Open(a.settings.History.DBPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()
	return fn(a, store)
}

func printRuns(w io.Writer, runs []*history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No matching runs")
		return
	}
	gray := color.New(color.FgHiBlack)
	for _, run := range runs {
		statusColor(run.Status).Fprintf(w, "%-9s ", run.Status)
		fmt.Fprintf(w, "%-10s %s  %8s  ", run.Command, run.StartedAt.Local().Format("2006-01-02 15:04"), run.Duration().Round(time.Second))
		gray.Fprintf(w, "%s\n", run.ID)
		fmt.Fprintf(w, "          %s\n", run.ConfigPath)
		if run.Error != "" {
			fmt.Fprintf(w, "          %s\n", firstLine(run.Error))
		}
	}
}

func printRun(w io.Writer, run *history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)

	cyan.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Command:  %s\n", run.Command)
	fmt.Fprintf(w, "  Config:   %s\n", run.ConfigPath)
	if run.Purpose != "" {
		fmt.Fprintf(w, "  Purpose:  %s\n", run.Purpose)
	}
	fmt.Fprintf(w, "  Status:   ")
	statusColor(run.Status).Fprintf(w, "%s\n", run.Status)
	fmt.Fprintf(w, "  Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "  Duration: %s\n", run.Duration().Round(time.Second))
	if run.OutputDir != "" {
		fmt.Fprintf(w, "  Output:   %s\n", run.OutputDir)
	}
	if run.LogFile != "" {
		fmt.Fprintf(w, "  Log:      %s\n", run.LogFile)
	}
	if run.Error != "" {
		fmt.Fprintf(w, "  Error:    ")
		red.Fprintf(w, "%s\n", strings.TrimSpace(run.Error))
	}
	if len(run.Artifacts) > 0 {
		fmt.Fprintln(w, "  Artifacts:")
		for _, a := range run.Artifacts {
			fmt.Fprintf(w, "    %s\n", a)
		}
	}
}

func statusColor(s history.Status) *color.Color {
	if s == history.StatusSucceeded {
		return color.New(color.FgGreen)
	}
	return color.New(color.FgRed)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
