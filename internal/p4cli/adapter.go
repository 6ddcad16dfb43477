// Package p4cli implements p4.Adapter by running the p4 command line client.
package p4cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-p4form/pkg/p4"
)

// ErrCommandFailed is returned when p4 exits non-zero where success was
// required to answer the query.
var ErrCommandFailed = errors.New("p4cli: command failed")

// Adapter runs p4 for every query. It keeps no state between calls.
type Adapter struct {
	binary string
	port   string
	user   string
	client string
	runner Runner
	logger *zap.Logger
}

var _ p4.Adapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithBinary overrides the p4 executable (default "p4").
func WithBinary(path string) Option {
	return func(a *Adapter) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			a.binary = trimmed
		}
	}
}

// WithPort sets the server address passed as -p.
func WithPort(port string) Option {
	return func(a *Adapter) { a.port = strings.TrimSpace(port) }
}

// WithUser sets the user passed as -u.
func WithUser(user string) Option {
	return func(a *Adapter) { a.user = strings.TrimSpace(user) }
}

// WithClient sets the client workspace passed as -c.
func WithClient(client string) Option {
	return func(a *Adapter) { a.client = strings.TrimSpace(client) }
}

// WithRunner replaces the process runner, mainly for tests.
func WithRunner(runner Runner) Option {
	return func(a *Adapter) {
		if runner != nil {
			a.runner = runner
		}
	}
}

// WithLogger logs every command at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New returns an Adapter. Without options it runs "p4" from PATH and lets the
// client pick up P4PORT and friends from the environment.
func New(options ...Option) *Adapter {
	a := &Adapter{
		binary: "p4",
		runner: execRunner{},
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// UserExists scans "p4 users" for a line starting with id. p4 user -o
// returns a template for any name, so it cannot answer this.
func (a *Adapter) UserExists(ctx context.Context, id string) (bool, error) {
	out, err := a.run(ctx, "users")
	if err != nil {
		return false, err
	}
	if out.ExitCode != 0 {
		return false, fmt.Errorf("%w: users exited %d", ErrCommandFailed, out.ExitCode)
	}
	return p4.HasUser(out.Stdout, id), nil
}

// UserEmail reads the Email field of "p4 user -o id".
func (a *Adapter) UserEmail(ctx context.Context, id string) (string, bool, error) {
	out, err := a.run(ctx, "user", "-o", id)
	if err != nil {
		return "", false, err
	}
	if out.ExitCode != 0 {
		return "", false, fmt.Errorf("%w: user -o %s exited %d", ErrCommandFailed, id, out.ExitCode)
	}
	email, ok := p4.ParseEmail(out.Stdout)
	return email, ok, nil
}

// ChangelistExists relies on "p4 change -o id" failing for unknown changes.
func (a *Adapter) ChangelistExists(ctx context.Context, id string) (bool, error) {
	out, err := a.run(ctx, "change", "-o", id)
	if err != nil {
		return false, err
	}
	return out.ExitCode == 0, nil
}

// JobSpecExists looks for the job's archived spec in the spec depot.
func (a *Adapter) JobSpecExists(ctx context.Context, id string) (bool, error) {
	lines, err := a.FileStatusLineCount(ctx, p4.JobSpecPath(id))
	if err != nil {
		return false, err
	}
	return p4.ExistsByLineCount(lines), nil
}

// FileStatusLineCount counts the combined output lines of "p4 fstat path".
// An unknown file yields a single "no such file(s)" line.
func (a *Adapter) FileStatusLineCount(ctx context.Context, path string) (int, error) {
	out, err := a.run(ctx, "fstat", path)
	if err != nil {
		return 0, err
	}
	return p4.CountLines(out.Combined), nil
}

func (a *Adapter) run(ctx context.Context, args ...string) (Output, error) {
	full := append(a.globalArgs(), args...)
	a.logger.Debug("running p4", zap.String("binary", a.binary), zap.Strings("args", full))

	out, err := a.runner.Run(ctx, a.binary, full...)
	if err != nil {
		a.logger.Debug("p4 failed to run", zap.Strings("args", full), zap.Error(err))
		return Output{}, err
	}
	if out.ExitCode != 0 {
		a.logger.Debug("p4 exited non-zero",
			zap.Strings("args", full),
			zap.Int("exit_code", out.ExitCode),
			zap.String("output", strings.TrimSpace(out.Combined)))
	}
	return out, nil
}

func (a *Adapter) globalArgs() []string {
	var args []string
	if a.port != "" {
		args = append(args, "-p", a.port)
	}
	if a.user != "" {
		args = append(args, "-u", a.user)
	}
	if a.client != "" {
		args = append(args, "-c", a.client)
	}
	return args
}
