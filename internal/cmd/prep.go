package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/dataset"
	"github.com/harrison/songdeck/internal/document"
	"github.com/harrison/songdeck/internal/history"
	"github.com/harrison/songdeck/internal/logger"
	"github.com/harrison/songdeck/internal/parser"
	"github.com/harrison/songdeck/internal/prep"
	"github.com/harrison/songdeck/internal/schema"
	"github.com/harrison/songdeck/internal/settings"
	"github.com/harrison/songdeck/internal/spect"
)

// newMaker builds the spectrogram maker for a prep run. Tests replace it.
var newMaker = func(s *settings.Settings) spect.Maker {
	return &spect.ArtifactMaker{Prober: spect.FFProbe{Bin: s.FFProbe}}
}

// prepSections are the sections prep reads. The mode section is only
// rewritten, so its data paths may still be missing.
var prepSections = []string{
	string(schema.Prep), string(schema.SpectParams), string(schema.DataLoader),
}

// NewPrepCommand creates the 'songdeck prep' command
func NewPrepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prep <config.toml>",
		Short: "Prepare spectrogram datasets from a [PREP] section",
		Long: `Build a dataset from the recordings named in the [PREP] section:
  - Map the labelset to consecutive classes (0 is the silent gap)
  - Find audio or spectrogram files and their annotations
  - Write one spectrogram artifact per file
  - Split the files into train, val and test dataset-dicts

The config file is then updated in place so the mode section
([TRAIN], [LEARNCURVE], [EVAL] or [PREDICT]) points at the new dataset.
A config with no mode section gets a [TRAIN] table holding the paths.`,
		Args: cobra.ExactArgs(1),
		RunE: runPrep,
	}
}

func runPrep(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	path, err := absConfig(args[0])
	if err != nil {
		return err
	}
	reg, err := a.registry()
	if err != nil {
		return err
	}

	doc, err := document.Load(path)
	if err != nil {
		return err
	}
	cfg, err := config.FromDocument(doc, config.LoadOptions{Sections: prepSections, Registry: reg})
	if err != nil {
		return err
	}
	if cfg.Prep == nil {
		return parser.Errorf(parser.KindStructural, "PREP", "", "the prep command needs a [PREP] section")
	}

	fl, err := logger.NewFileLogger(a.settings.LogDir, "prep", a.settings.LogLevel)
	if err != nil {
		return err
	}
	defer fl.Close()
	log := logger.Multi(a.log, fl)

	ctx, stop := signalContext(cmd)
	defer stop()

	run := &history.Run{
		Command:    "prep",
		ConfigPath: path,
		Purpose:    string(cfg.Purpose),
		StartedAt:  time.Now(),
		LogFile:    fl.Path(),
	}

	res, err := prep.Run(ctx, prep.Request{
		Prep:        cfg.Prep,
		SpectParams: cfg.SpectParams,
		Maker:       newMaker(a.settings),
		MaxWorkers:  a.settings.MaxWorkers,
		Logger:      log,
	})
	if err == nil {
		run.OutputDir = res.OutputDir
		run.Artifacts = prepArtifacts(res)
		err = rewriteConfig(ctx, doc, cfg, res, log)
	}
	a.finish(ctx, run, err)
	if err != nil {
		return err
	}

	printPrepSummary(a, res)
	return nil
}

// rewriteConfig points the purpose section at the prepared dataset and saves
// the document. A document without a mode section gets the dataset paths in
// a new [TRAIN] table.
func rewriteConfig(ctx context.Context, doc *document.Document, cfg *config.Config, res *prep.Result, log logger.Logger) error {
	section, ok := cfg.Purpose.Section()
	if !ok {
		section = schema.Train
	}
	updated, err := prep.RewriteDocument(doc, section, res.DocumentOptions(section))
	if err != nil {
		return err
	}
	if err := updated.Save(ctx); err != nil {
		return err
	}
	logger.LogStage(log, "updated config", fmt.Sprintf("[%s] in %s", section, doc.Path()))
	return nil
}

func prepArtifacts(res *prep.Result) []string {
	out := make([]string, 0, len(res.DictPaths)+2)
	for _, split := range dataset.Splits {
		if p, ok := res.DictPaths[split]; ok {
			out = append(out, p)
		}
	}
	return append(out, res.CSVPath, res.LabelmapPath)
}

func printPrepSummary(a *app, res *prep.Result) {
	bold := color.New(color.Bold)
	bold.Fprintf(a.out, "Dataset: %s\n", res.OutputDir)
	fmt.Fprintf(a.out, "  %d source files, %d labels\n", len(res.Sources), len(res.Labelmap.Labels()))
	for _, d := range res.Dicts {
		fmt.Fprintf(a.out, "  %-5s %8.1fs  %s\n", d.Split, d.Duration, res.DictPaths[d.Split])
	}
}
