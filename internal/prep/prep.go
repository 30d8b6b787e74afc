// Package prep turns a PREP section into dataset artifacts: a label
// mapping, one spectrogram artifact per source file, and a dataset-dict per
// split. It never touches the configuration document; RewriteDocument
// returns the updated document for the caller to save.
package prep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/dataset"
	"github.com/harrison/songdeck/internal/labelmap"
	"github.com/harrison/songdeck/internal/logger"
	"github.com/harrison/songdeck/internal/parser"
	"github.com/harrison/songdeck/internal/spect"
)

// OutputDirPrefix starts the name of every prep output directory.
const OutputDirPrefix = "spectrograms_"

// Request is one prep run.
type Request struct {
	Prep        *config.PrepConfig
	SpectParams *config.SpectParamsConfig // nil uses zero parameters

	Maker    spect.Maker
	Splitter dataset.Splitter // nil means dataset.GreedySplitter

	// MaxWorkers caps Prep.NumWorkers. Zero means no cap.
	MaxWorkers int

	Logger logger.Logger
	Now    func() time.Time
}

// Result describes what a prep run wrote.
type Result struct {
	OutputDir    string
	Labelmap     labelmap.Map
	LabelmapPath string
	CSVPath      string
	Dicts        []*dataset.Dict
	DictPaths    map[string]string // split → saved dict
	Sources      []Source
}

// Run prepares a dataset. It fails before making any directory when the
// label mapping is invalid or no sources are found.
func Run(ctx context.Context, req Request) (*Result, error) {
	if req.Prep == nil {
		return nil, parser.Errorf(parser.KindStructural, "PREP", "", "prep needs a PREP section")
	}
	if req.Maker == nil {
		return nil, errors.New("prep: no spectrogram maker")
	}
	log := req.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	now := req.Now
	if now == nil {
		now = time.Now
	}
	splitter := req.Splitter
	if splitter == nil {
		splitter = dataset.GreedySplitter{}
	}
	var params config.SpectParamsConfig
	if req.SpectParams != nil {
		params = *req.SpectParams
	}
	p := req.Prep

	lm, err := labelmap.Build(p.Labelset, p.AllLabelsAreInt, p.SilentGapLabel)
	if err != nil {
		return nil, err
	}
	log.LogDebug(fmt.Sprintf("label mapping: %v", lm))

	sources, err := Discover(p)
	if err != nil {
		return nil, err
	}
	logger.LogStage(log, "found sources", fmt.Sprintf("%d %s files in %s", len(sources), sources[0].Format, p.DataDir))

	outDir, err := makeOutputDir(p, now())
	if err != nil {
		return nil, err
	}
	res := &Result{
		OutputDir: outDir,
		Labelmap:  lm,
		Sources:   sources,
		DictPaths: make(map[string]string),
	}

	jobs := make([]spect.Job, len(sources))
	for i, s := range sources {
		jobs[i] = spect.Job{
			Source:      s.Path,
			Format:      s.Format,
			AnnotFile:   s.AnnotFile,
			AnnotFormat: s.AnnotFormat,
			OutputDir:   outDir,
			Params:      params,
			Labelmap:    lm,
		}
	}
	workers := p.NumWorkers
	if req.MaxWorkers > 0 && workers > req.MaxWorkers {
		workers = req.MaxWorkers
	}
	logger.LogStage(log, "making spectrograms", fmt.Sprintf("%d files, %d workers", len(jobs), max(workers, 1)))
	made, err := spect.MakeAll(ctx, progressMaker(req.Maker, log, len(jobs)), jobs, workers)
	if err != nil {
		return nil, err
	}

	entries := make([]dataset.Entry, len(made))
	for i, r := range made {
		entries[i] = dataset.Entry{SpectPath: r.ArtifactPath, SourcePath: r.Source, Duration: r.Duration}
	}
	splits, err := splitter.Split(entries, dataset.Durations{Train: p.TrainDur, Val: p.ValDur, Test: p.TestDur})
	if err != nil {
		return nil, err
	}

	for _, name := range dataset.Splits {
		files, ok := splits[name]
		if !ok {
			continue
		}
		d := dataset.NewDict(name, files, lm, params)
		path, err := d.Save(outDir)
		if err != nil {
			return nil, err
		}
		res.Dicts = append(res.Dicts, d)
		res.DictPaths[name] = path
		logger.LogSplitSummary(log, name, len(files), d.Duration)
	}

	res.CSVPath = filepath.Join(outDir, dataset.CSVFilename)
	if err := dataset.WriteCSV(res.CSVPath, res.Dicts); err != nil {
		return nil, err
	}
	res.LabelmapPath = filepath.Join(outDir, labelmap.Filename)
	if err := lm.Save(res.LabelmapPath); err != nil {
		return nil, err
	}
	return res, nil
}

// OutputDirName is the directory name for a run started at t.
func OutputDirName(t time.Time) string {
	return OutputDirPrefix + t.Format("060102_150405")
}

// makeOutputDir creates the run directory under output_dir, or under
// data_dir when output_dir is unset. An existing directory is an error so
// two runs never share one.
func makeOutputDir(p *config.PrepConfig, t time.Time) (string, error) {
	parent := p.OutputDir
	if parent == "" {
		parent = p.DataDir
	}
	dir := filepath.Join(parent, OutputDirName(t))
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("output directory %s already exists: %w", dir, err)
		}
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return dir, nil
}

type progress struct {
	spect.Maker
	log   logger.Logger
	bar   *logger.ProgressBar
	every int
}

// progressMaker reports progress roughly every tenth of the jobs.
func progressMaker(m spect.Maker, log logger.Logger, total int) spect.Maker {
	bar := logger.NewProgressBar(total, 20)
	bar.SetPrefix("spectrograms ")
	return &progress{Maker: m, log: log, bar: bar, every: max(total/10, 1)}
}

func (p *progress) Make(ctx context.Context, job spect.Job) (spect.Result, error) {
	r, err := p.Maker.Make(ctx, job)
	if err != nil {
		return r, err
	}
	if n := p.bar.Increment(); n%p.every == 0 || n == p.bar.Total() {
		logger.LogProgress(p.log, p.bar)
	}
	return r, nil
}
