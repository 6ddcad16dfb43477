package p4cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Output captures a finished command. Combined interleaves stdout and stderr
// in the order they were written, like a shell "2>&1".
type Output struct {
	Stdout   string
	Combined string
	ExitCode int
}

// Runner executes a command. A non-zero exit is reported through ExitCode,
// not as an error; errors mean the command could not be run at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// RunnerFunc adapts a function into a Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) (Output, error)

// Run delegates to the underlying function.
func (fn RunnerFunc) Run(ctx context.Context, name string, args ...string) (Output, error) {
	return fn(ctx, name, args...)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	var stdout bytes.Buffer
	combined := &lockedBuffer{}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.MultiWriter(&stdout, combined)
	cmd.Stderr = combined

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Combined: combined.String()}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, fmt.Errorf("p4cli: run %s: %w", name, err)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
