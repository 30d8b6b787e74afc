// Package runner carries out the train, learncurve, eval and predict
// commands. It lays out the results directory, checks the prepared dataset
// against the loaded configuration, and calls each model's entrypoint. The
// numerics of training and inference live in the entrypoints.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/songdeck/internal/logger"
	"github.com/harrison/songdeck/internal/models"
	"github.com/harrison/songdeck/internal/parser"
)

// Models resolves model names to their cards.
type Models interface {
	Get(name string) (*models.Card, bool)
}

// Runner runs model commands. Zero fields fall back to defaults: no
// logging, the real clock, and child processes with no timeout.
type Runner struct {
	Models   Models
	Executor Executor
	Logger   logger.Logger

	// LogLevel enables a per-run log file in the output directory when set.
	LogLevel string

	Now func() time.Time
}

// Run describes a finished command.
type Run struct {
	Command     string
	OutputDir   string
	LogFile     string
	Invocations []Invocation
	Artifacts   []string
}

// session is the state of one command while it runs.
type session struct {
	r    *Runner
	run  *Run
	log  logger.Logger
	file *logger.FileLogger
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) executor() Executor {
	if r.Executor != nil {
		return r.Executor
	}
	return ExecExecutor{}
}

// start creates <parent>/<prefix><timestamp> and opens the run log there.
func (r *Runner) start(command, parent, prefix string) (*session, error) {
	if r.Models == nil {
		return nil, errors.New("runner: no model registry")
	}
	dir := filepath.Join(parent, prefix+r.now().Format("060102_150405"))
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", parent, err)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("results directory %s already exists: %w", dir, err)
		}
		return nil, fmt.Errorf("create results directory: %w", err)
	}

	s := &session{r: r, run: &Run{Command: command, OutputDir: dir}}
	s.log = r.Logger
	if s.log == nil {
		s.log = logger.NewNoOpLogger()
	}
	if r.LogLevel != "" {
		fl, err := logger.NewFileLogger(dir, command, r.LogLevel)
		if err != nil {
			return nil, err
		}
		s.file = fl
		s.run.LogFile = fl.Path()
		s.log = logger.Multi(s.log, fl)
	}
	logger.LogStage(s.log, command, "writing results to "+dir)
	return s, nil
}

func (s *session) close() {
	if s.file != nil {
		s.file.Close()
	}
}

// copyFile copies src into dir and records it as an artifact.
func (s *session) copyFile(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	s.run.Artifacts = append(s.run.Artifacts, dst)
	return dst, nil
}

// invoke runs model's entrypoint in <dir>/<model> with the songdeck
// arguments appended to the card's own.
func (s *session) invoke(ctx context.Context, model, dir string, extra ...string) error {
	card, ok := s.r.Models.Get(model)
	if !ok {
		return parser.Errorf(parser.KindModelNotInstalled, "", "models", "model %q is not installed", model)
	}
	prog, args := card.Command()
	if prog == "" {
		return fmt.Errorf("model %s has an empty entrypoint", model)
	}

	workDir := filepath.Join(dir, model)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", workDir, err)
	}
	args = append(append(args, s.run.Command, "--model", model, "--output-dir", workDir), extra...)
	inv := Invocation{Model: model, Program: prog, Args: args, Dir: workDir}

	s.log.LogInfo(fmt.Sprintf("running %s", inv))
	started := time.Now()
	if err := s.r.executor().Run(ctx, inv); err != nil {
		s.log.LogError(err.Error())
		return err
	}
	s.log.LogInfo(fmt.Sprintf("%s finished in %s", model, time.Since(started).Round(time.Second)))
	s.run.Invocations = append(s.run.Invocations, inv)
	return nil
}

// requireSection reports a missing mode section as a structural error.
func requireSection(ok bool, section, command string) error {
	if ok {
		return nil
	}
	return parser.Errorf(parser.KindStructural, section, "", "the %s command needs a [%s] section", command, section)
}

var _ Models = (*models.Registry)(nil)

