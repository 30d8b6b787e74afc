package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for songdeck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "songdeck",
		Short: "Prepare datasets and run models for animal vocalization analysis",
		Long: `songdeck reads a TOML configuration file and runs one step of a
vocalization labeling experiment: preparing spectrogram datasets, training
models, generating learning curves, evaluating checkpoints, or predicting
labels for new recordings.

Every configuration is validated in full before any work starts.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("home", "", "songdeck home directory (default: $SONGDECK_HOME or ~/.songdeck)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().Int("max-workers", -1, "Cap on spectrogram workers (0 = no cap, -1 = use settings)")
	cmd.PersistentFlags().Bool("no-history", false, "Do not record this run in the history database")

	cmd.AddCommand(NewPrepCommand())
	cmd.AddCommand(NewTrainCommand())
	cmd.AddCommand(NewLearncurveCommand())
	cmd.AddCommand(NewEvalCommand())
	cmd.AddCommand(NewPredictCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewModelsCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
