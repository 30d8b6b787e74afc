package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// OutputFile holds a model entrypoint's combined output inside its
// working directory.
const OutputFile = "entrypoint.out"

// Invocation is one call of a model entrypoint.
type Invocation struct {
	Model   string
	Program string
	Args    []string
	Dir     string // working directory, created before the call
}

// String renders the command line for logs.
func (inv Invocation) String() string {
	return strings.TrimSpace(inv.Program + " " + strings.Join(inv.Args, " "))
}

// Executor runs entrypoint invocations.
type Executor interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, inv Invocation) error

// Run calls f.
func (f ExecutorFunc) Run(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}

// ExecExecutor runs entrypoints as child processes tied to ctx.
type ExecExecutor struct {
	// Timeout bounds each invocation. Zero means no limit.
	Timeout time.Duration
}

// Run starts inv.Program in inv.Dir and waits for it. Combined output is
// saved to OutputFile in inv.Dir.
func (e ExecExecutor) Run(ctx context.Context, inv Invocation) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Dir = inv.Dir
	output, err := cmd.CombinedOutput()
	if werr := os.WriteFile(filepath.Join(inv.Dir, OutputFile), output, 0644); werr != nil && err == nil {
		err = fmt.Errorf("save entrypoint output: %w", werr)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s entrypoint stopped: %w", inv.Model, ctx.Err())
		}
		return fmt.Errorf("%s entrypoint failed: %w (output: %s)", inv.Model, err, tail(output, 20))
	}
	return nil
}

// tail keeps the last n lines of out.
func tail(out []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
