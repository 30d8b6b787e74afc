package runner

import (
	"context"
	"path/filepath"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/labelmap"
)

// Eval runs the EVAL section. Results go to eval_<timestamp> under
// output_dir, or beside the checkpoint when output_dir is unset.
func (r *Runner) Eval(ctx context.Context, cfg *config.Config) (*Run, error) {
	if err := requireSection(cfg.Eval != nil, "EVAL", "eval"); err != nil {
		return nil, err
	}
	e := cfg.Eval
	return r.infer(ctx, cfg, "eval", inference{
		models:     e.Models,
		outputDir:  e.OutputDir,
		checkpoint: e.CheckpointPath,
		csvPath:    e.CSVPath,
		labelmap:   e.LabelmapPath,
	})
}

// Predict runs the PREDICT section. Results go to predict_<timestamp>
// under output_dir, or beside the checkpoint when output_dir is unset.
func (r *Runner) Predict(ctx context.Context, cfg *config.Config) (*Run, error) {
	if err := requireSection(cfg.Predict != nil, "PREDICT", "predict"); err != nil {
		return nil, err
	}
	p := cfg.Predict
	return r.infer(ctx, cfg, "predict", inference{
		models:     p.Models,
		outputDir:  p.OutputDir,
		checkpoint: p.CheckpointPath,
		csvPath:    p.CSVPath,
		labelmap:   p.LabelmapPath,
	})
}

type inference struct {
	models     []string
	outputDir  string
	checkpoint string
	csvPath    string
	labelmap   string
}

func (r *Runner) infer(ctx context.Context, cfg *config.Config, command string, in inference) (*Run, error) {
	if in.labelmap != "" {
		if _, err := labelmap.Load(in.labelmap); err != nil {
			return nil, err
		}
	}

	parent := in.outputDir
	if parent == "" {
		parent = filepath.Dir(in.checkpoint)
	}
	s, err := r.start(command, parent, command+"_")
	if err != nil {
		return nil, err
	}
	defer s.close()

	cfgCopy, err := s.copyFile(cfg.Path, s.run.OutputDir)
	if err != nil {
		return nil, err
	}

	extra := []string{"--config", cfgCopy, "--checkpoint", in.checkpoint, "--csv-path", in.csvPath}
	if in.labelmap != "" {
		extra = append(extra, "--labelmap", in.labelmap)
	}
	for _, model := range in.models {
		if err := s.invoke(ctx, model, s.run.OutputDir, extra...); err != nil {
			return s.run, err
		}
	}
	return s.run, nil
}
