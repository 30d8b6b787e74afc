package runner

import (
	"context"
	"path/filepath"
	"reflect"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/dataset"
	"github.com/harrison/songdeck/internal/labelmap"
	"github.com/harrison/songdeck/internal/parser"
)

// Train runs the TRAIN section: one results_<timestamp> directory under
// root_results_dir holding a copy of the configuration, the label mapping
// and one subdirectory per model.
func (r *Runner) Train(ctx context.Context, cfg *config.Config) (*Run, error) {
	if err := requireSection(cfg.Train != nil, "TRAIN", "train"); err != nil {
		return nil, err
	}
	t := cfg.Train

	dicts, err := loadDicts(t)
	if err != nil {
		return nil, err
	}
	if err := checkSpectParams(cfg.SpectParams, dicts); err != nil {
		return nil, err
	}
	lm := labelmap.Map(dicts[0].Labelmap)
	if err := lm.Validate(); err != nil {
		return nil, err
	}

	s, err := r.start("train", t.RootResultsDir, "results_")
	if err != nil {
		return nil, err
	}
	defer s.close()

	cfgCopy, err := s.copyFile(cfg.Path, s.run.OutputDir)
	if err != nil {
		return nil, err
	}
	lmPath := filepath.Join(s.run.OutputDir, labelmap.Filename)
	if err := lm.Save(lmPath); err != nil {
		return nil, err
	}
	s.run.Artifacts = append(s.run.Artifacts, lmPath)

	for _, model := range t.Models {
		if err := s.invoke(ctx, model, s.run.OutputDir, "--config", cfgCopy); err != nil {
			return s.run, err
		}
	}
	return s.run, nil
}

// loadDicts reads the train dict and, when set, the val and test dicts.
// The train dict comes first.
func loadDicts(t *config.TrainConfig) ([]*dataset.Dict, error) {
	var out []*dataset.Dict
	for _, path := range []string{t.TrainDataPath, t.ValDataPath, t.TestDataPath} {
		if path == "" {
			continue
		}
		d, err := dataset.Load(path)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// checkSpectParams requires every dict to have been made with the
// configured spectrogram parameters. With no SPECT_PARAMS section there is
// nothing to compare.
func checkSpectParams(want *config.SpectParamsConfig, dicts []*dataset.Dict) error {
	if want == nil {
		return nil
	}
	for _, d := range dicts {
		if !reflect.DeepEqual(normalized(*want), normalized(d.SpectParams)) {
			return &parser.Error{
				Kind:    parser.KindValue,
				Section: "SPECT_PARAMS",
				Value:   d.SpectParams,
				Message: "parameters differ from those used to make the " + d.Split + " dataset; run prep again or match the section to the dataset",
			}
		}
	}
	return nil
}

// normalized treats an empty cutoff list like a missing one.
func normalized(p config.SpectParamsConfig) config.SpectParamsConfig {
	if len(p.FreqCutoffs) == 0 {
		p.FreqCutoffs = nil
	}
	return p
}
