package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/history"
	"github.com/harrison/songdeck/internal/runner"
	"github.com/harrison/songdeck/internal/schema"
	"github.com/harrison/songdeck/internal/settings"
)

// newExecutor builds the entrypoint executor. Tests replace it.
var newExecutor = func(s *settings.Settings) runner.Executor {
	return runner.ExecExecutor{Timeout: s.EntrypointTimeout}
}

// modelStep is one of the commands that hand a prepared dataset to models.
type modelStep struct {
	purpose schema.Purpose
	short   string
	long    string
	run     func(r *runner.Runner, ctx context.Context, cfg *config.Config) (*runner.Run, error)
}

// NewTrainCommand creates the 'songdeck train' command
func NewTrainCommand() *cobra.Command {
	return newModelCommand(modelStep{
		purpose: schema.PurposeTrain,
		short:   "Train models on a prepared dataset",
		long: `Train every model named in [TRAIN] on the dataset written by prep.

Results go to results_<timestamp> under root_results_dir: a copy of the
config, the label mapping, a run log, and one directory per model.`,
		run: (*runner.Runner).Train,
	})
}

// NewLearncurveCommand creates the 'songdeck learncurve' command
func NewLearncurveCommand() *cobra.Command {
	return newModelCommand(modelStep{
		purpose: schema.PurposeLearncurve,
		short:   "Train on subsets of increasing duration to build a learning curve",
		long: `For every duration in train_set_durs and every replicate, sample a
subset of the training split and train every model in [LEARNCURVE] on it.

Subset indices are saved so a later run can reuse them through
previous_run_path.`,
		run: (*runner.Runner).Learncurve,
	})
}

// NewEvalCommand creates the 'songdeck eval' command
func NewEvalCommand() *cobra.Command {
	return newModelCommand(modelStep{
		purpose: schema.PurposeEval,
		short:   "Evaluate a trained checkpoint on a dataset",
		long: `Evaluate the checkpoint in [EVAL] against the dataset in csv_path with
every model in models. Results go to eval_<timestamp> under output_dir, or
beside the checkpoint.`,
		run: (*runner.Runner).Eval,
	})
}

// NewPredictCommand creates the 'songdeck predict' command
func NewPredictCommand() *cobra.Command {
	return newModelCommand(modelStep{
		purpose: schema.PurposePredict,
		short:   "Predict labels for new recordings",
		long: `Run the checkpoint in [PREDICT] over the dataset in csv_path and
write the predicted annotations to predict_<timestamp> under output_dir,
or beside the checkpoint.`,
		run: (*runner.Runner).Predict,
	})
}

func newModelCommand(step modelStep) *cobra.Command {
	return &cobra.Command{
		Use:   string(step.purpose) + " <config.toml>",
		Short: step.short,
		Long:  step.long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelStep(cmd, args[0], step)
		},
	}
}

func runModelStep(cmd *cobra.Command, configArg string, step modelStep) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	path, err := absConfig(configArg)
	if err != nil {
		return err
	}
	reg, err := a.registry()
	if err != nil {
		return err
	}
	cfg, err := config.FromPath(path, config.LoadOptions{Purpose: step.purpose, Registry: reg})
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	r := &runner.Runner{
		Models:   reg,
		Executor: newExecutor(a.settings),
		Logger:   a.log,
		LogLevel: a.settings.LogLevel,
	}
	hist := &history.Run{
		Command:    string(step.purpose),
		ConfigPath: path,
		Purpose:    string(step.purpose),
		StartedAt:  time.Now(),
	}

	run, err := step.run(r, ctx, cfg)
	if run != nil {
		hist.OutputDir = run.OutputDir
		hist.LogFile = run.LogFile
		hist.Artifacts = run.Artifacts
	}
	a.finish(ctx, hist, err)
	if err != nil {
		return err
	}

	printRunSummary(a, run)
	return nil
}

func printRunSummary(a *app, run *runner.Run) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(a.out, "%s finished: %s\n", run.Command, run.OutputDir)
	for _, inv := range run.Invocations {
		fmt.Fprintf(a.out, "  %-16s %s\n", inv.Model, inv.Dir)
	}
	if run.LogFile != "" {
		fmt.Fprintf(a.out, "  log: %s\n", run.LogFile)
	}
}
