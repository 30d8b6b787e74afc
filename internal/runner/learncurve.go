package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/dataset"
	"github.com/harrison/songdeck/internal/filelock"
	"github.com/harrison/songdeck/internal/labelmap"
	"github.com/harrison/songdeck/internal/parser"
)

// TrainIndsFile lists, inside each subset directory, the indices into the
// train dataset of the files the subset uses.
const TrainIndsFile = "train_inds"

// SubsetDirName is the directory of one training-set size and replicate.
func SubsetDirName(dur, replicate int) string {
	return fmt.Sprintf("records_for_training_set_with_duration_of_%d_s_replicate_%d", dur, replicate)
}

// Learncurve runs the LEARNCURVE section: for every training-set duration
// and replicate it draws a subset of the train dataset, saves the indices
// and a subset dataset, and trains every model on it.
func (r *Runner) Learncurve(ctx context.Context, cfg *config.Config) (*Run, error) {
	if err := requireSection(cfg.Learncurve != nil, "LEARNCURVE", "learncurve"); err != nil {
		return nil, err
	}
	lc := cfg.Learncurve

	dicts, err := loadDicts(&lc.TrainConfig)
	if err != nil {
		return nil, err
	}
	if err := checkSpectParams(cfg.SpectParams, dicts); err != nil {
		return nil, err
	}
	train := dicts[0]
	lm := labelmap.Map(train.Labelmap)
	if err := lm.Validate(); err != nil {
		return nil, err
	}

	s, err := r.start("learncurve", lc.RootResultsDir, "learncurve_")
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

	for _, dur := range lc.TrainSetDurs {
		for rep := 1; rep <= lc.NumReplicates; rep++ {
			sub := SubsetDirName(dur, rep)
			dir := filepath.Join(s.run.OutputDir, "train", sub)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return s.run, fmt.Errorf("create %s: %w", dir, err)
			}

			var inds []int
			if lc.UseTrainSubsetsFromPreviousRun {
				inds, err = readTrainInds(filepath.Join(lc.PreviousRunPath, "train", sub, TrainIndsFile))
			} else {
				inds, err = SampleSubset(train.Files, float64(dur), rep)
			}
			if err != nil {
				return s.run, err
			}
			if err := checkInds(inds, len(train.Files)); err != nil {
				return s.run, err
			}

			indsPath := filepath.Join(dir, TrainIndsFile)
			if err := writeTrainInds(indsPath, inds); err != nil {
				return s.run, err
			}
			files := make([]dataset.Entry, len(inds))
			for i, idx := range inds {
				files[i] = train.Files[idx]
			}
			subset := dataset.NewDict(dataset.Train, files, train.Labelmap, train.SpectParams)
			subsetPath, err := subset.Save(dir)
			if err != nil {
				return s.run, err
			}
			s.run.Artifacts = append(s.run.Artifacts, indsPath, subsetPath)
			s.log.LogInfo(fmt.Sprintf("training set of %d s, replicate %d: %d files, %.1f s", dur, rep, len(files), subset.Duration))

			for _, model := range lc.Models {
				err := s.invoke(ctx, model, dir,
					"--config", cfgCopy,
					"--train-data-path", subsetPath,
					"--train-dur", fmt.Sprint(dur),
					"--replicate", fmt.Sprint(rep))
				if err != nil {
					return s.run, err
				}
			}
		}
	}
	return s.run, nil
}

// SampleSubset draws files in a random order fixed by dur and replicate
// until their durations reach dur seconds, and returns their indices in
// ascending order. Asking for more than the dataset holds is an error.
func SampleSubset(files []dataset.Entry, dur float64, replicate int) ([]int, error) {
	total := dataset.TotalDuration(files)
	if dur > total {
		return nil, parser.Errorf(parser.KindValue, "LEARNCURVE", "train_set_durs",
			"training set of %g s requested but the train dataset holds %g s", dur, total)
	}

	rng := rand.New(rand.NewPCG(uint64(dur*1000), uint64(replicate)))
	order := rng.Perm(len(files))

	picked := make([]bool, len(files))
	var got float64
	for _, idx := range order {
		if got >= dur {
			break
		}
		picked[idx] = true
		got += files[idx].Duration
	}

	var inds []int
	for i, ok := range picked {
		if ok {
			inds = append(inds, i)
		}
	}
	return inds, nil
}

func checkInds(inds []int, n int) error {
	if len(inds) == 0 {
		return parser.Errorf(parser.KindValue, "LEARNCURVE", "train_set_durs", "empty training subset")
	}
	for _, i := range inds {
		if i < 0 || i >= n {
			return parser.Errorf(parser.KindValue, "LEARNCURVE", "previous_run_path",
				"training subset index %d is outside a train dataset of %d files", i, n)
		}
	}
	return nil
}

func writeTrainInds(path string, inds []int) error {
	data, err := yaml.Marshal(inds)
	if err != nil {
		return fmt.Errorf("encode %s: %w", TrainIndsFile, err)
	}
	return filelock.AtomicWrite(path, data)
}

func readTrainInds(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &parser.Error{
				Kind:    parser.KindFileNotFound,
				Section: "LEARNCURVE",
				Option:  "previous_run_path",
				Value:   path,
				Message: "previous run has no " + TrainIndsFile + " for this subset",
			}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var inds []int
	if err := yaml.Unmarshal(data, &inds); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return inds, nil
}
