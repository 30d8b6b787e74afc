package spect

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/labelmap"
)

// Job asks a Maker for the artifact of one source file.
type Job struct {
	Source      string
	Format      string // audio or spectrogram format of Source
	AnnotFile   string
	AnnotFormat string
	OutputDir   string
	Params      config.SpectParamsConfig
	Labelmap    labelmap.Map
}

// Result describes a written artifact.
type Result struct {
	Source       string
	ArtifactPath string
	Duration     float64
}

// Maker turns a source file into a spectrogram artifact.
type Maker interface {
	Make(ctx context.Context, job Job) (Result, error)
}

// ArtifactMaker probes each source and writes an Artifact beside the other
// prep outputs.
type ArtifactMaker struct {
	Prober Prober
}

// Make probes job.Source and writes <OutputDir>/<base(Source)>.spect.
func (m *ArtifactMaker) Make(ctx context.Context, job Job) (Result, error) {
	info, err := m.Prober.Probe(ctx, job.Source)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", job.Source, err)
	}

	path := filepath.Join(job.OutputDir, filepath.Base(job.Source)+Ext)
	a := &Artifact{
		Source:      job.Source,
		Format:      job.Format,
		DurationS:   info.Duration,
		SampleRate:  info.SampleRate,
		SpectParams: job.Params,
		Labelmap:    job.Labelmap,
		AnnotFile:   job.AnnotFile,
		AnnotFormat: job.AnnotFormat,
	}
	if err := WriteArtifact(path, a); err != nil {
		return Result{}, err
	}
	return Result{Source: job.Source, ArtifactPath: path, Duration: info.Duration}, nil
}

// MakeAll runs maker over jobs with at most workers in flight. Results keep
// job order. The first failure cancels the remaining jobs and is returned.
func MakeAll(ctx context.Context, maker Maker, jobs []Job, workers int) ([]Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(jobs))
	var (
		once     sync.Once
		firstErr error
	)
	forEach(ctx, len(jobs), workers, func(i int) {
		if ctx.Err() != nil {
			return
		}
		r, err := maker.Make(ctx, jobs[i])
		if err != nil {
			once.Do(func() {
				firstErr = err
				cancel()
			})
			return
		}
		results[i] = r
	})

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// forEach calls body for 0..length-1 with at most limit goroutines running.
// It stops starting new iterations once ctx is done.
func forEach(ctx context.Context, length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < length; i++ {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			body(i)
		}(i)
	}
	wg.Wait()
}
