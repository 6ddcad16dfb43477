// Package cli wires the p4form command line: cobra commands over the form
// parser, the rule checker and the p4 adapters.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	p4form "github.com/goliatone/go-p4form"
	"github.com/goliatone/go-p4form/internal/config"
	"github.com/goliatone/go-p4form/internal/p4cli"
	"github.com/goliatone/go-p4form/internal/prompt"
	"github.com/goliatone/go-p4form/pkg/p4"
	"github.com/goliatone/go-p4form/pkg/rules"
	"github.com/goliatone/go-p4form/pkg/validators"
)

// builtinRules labels the embedded default rule table in messages.
const builtinRules = "built-in"

// Exit codes returned by ExitCode.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitInvalid = 2
)

var (
	// ErrInvalidForms is returned when at least one form fails its rules.
	ErrInvalidForms = errors.New("cli: invalid forms")
	// ErrNoEmail is returned by the email command for users without an address.
	ErrNoEmail = errors.New("cli: no email on file")
)

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidForms), errors.Is(err, ErrNoEmail):
		return ExitInvalid
	default:
		return ExitError
	}
}

// Option configures the root command. Options exist mainly for tests.
type Option func(*options)

type options struct {
	adapter p4.Adapter
	driver  prompt.Driver
	logger  *zap.Logger
	getenv  func(string) string
}

// WithAdapter replaces the p4 adapter built from configuration.
func WithAdapter(adapter p4.Adapter) Option {
	return func(o *options) { o.adapter = adapter }
}

// WithPromptDriver replaces the survey driver used by the fix command.
func WithPromptDriver(driver prompt.Driver) Option {
	return func(o *options) { o.driver = driver }
}

// WithLogger replaces the zap logger built from configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEnv replaces os.Getenv for configuration lookups.
func WithEnv(getenv func(string) string) Option {
	return func(o *options) { o.getenv = getenv }
}

type globalFlags struct {
	configPath string
	verbose    bool
	binary     string
	port       string
	user       string
	client     string
	fixture    string
}

type app struct {
	opts    options
	flags   globalFlags
	cfg     config.Config
	logger  *zap.Logger
	adapter p4.Adapter
}

// NewRootCommand builds the p4form command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{opts: options{getenv: os.Getenv}}
	for _, opt := range opts {
		if opt != nil {
			opt(&a.opts)
		}
	}

	cmd := &cobra.Command{
		Use:   "p4form",
		Short: "Parse and validate Perforce job forms",
		Long: `p4form parses job forms in the "p4 job -o" text format and checks each
field against a table of rules before the form is submitted.

Rules are small expressions over $VALUE, for example:

  User:  isuserid("$VALUE")
  Fixes: islistof("$VALUE", ischangelist)

Existence checks query the server through the p4 binary, or through a YAML
fixture when --fixture is set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "Path to a YAML configuration file")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.flags.binary, "p4", "", "Path to the p4 binary (env P4BIN)")
	flags.StringVarP(&a.flags.port, "port", "p", "", "Server address (env P4PORT)")
	flags.StringVarP(&a.flags.user, "user", "u", "", "Server user (env P4USER)")
	flags.StringVarP(&a.flags.client, "client", "c", "", "Client workspace (env P4CLIENT)")
	flags.StringVar(&a.flags.fixture, "fixture", "", "Answer server queries from a YAML fixture instead of p4")

	cmd.AddCommand(
		newParseCommand(a),
		newValidateCommand(a),
		newFixCommand(a),
		newEmailCommand(a),
		newRulesCommand(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadWithEnv(a.flags.configPath, a.opts.getenv)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	overlay := []struct {
		flag   string
		value  string
		target *string
	}{
		{"p4", a.flags.binary, &cfg.Binary},
		{"port", a.flags.port, &cfg.Port},
		{"user", a.flags.user, &cfg.User},
		{"client", a.flags.client, &cfg.Client},
		{"fixture", a.flags.fixture, &cfg.Fixture},
	}
	for _, o := range overlay {
		if changed(o.flag) {
			*o.target = o.value
		}
	}
	if a.flags.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.opts.logger != nil {
		a.logger = a.opts.logger
	} else {
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	a.logger.Debug("configuration loaded",
		zap.String("config", a.flags.configPath),
		zap.String("port", cfg.Port),
		zap.String("user", cfg.User),
		zap.String("fixture", cfg.Fixture))
	return nil
}

// server returns the adapter, building it on first use so commands that never
// query the server do not need a reachable one.
func (a *app) server() (p4.Adapter, error) {
	if a.adapter != nil {
		return a.adapter, nil
	}
	switch {
	case a.opts.adapter != nil:
		a.adapter = a.opts.adapter
	case a.cfg.Fixture != "":
		fake, err := p4.LoadFakeFile(a.cfg.Fixture)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("using fixture server", zap.String("fixture", a.cfg.Fixture))
		a.adapter = fake
	default:
		a.adapter = p4cli.New(
			p4cli.WithBinary(a.cfg.Binary),
			p4cli.WithPort(a.cfg.Port),
			p4cli.WithUser(a.cfg.User),
			p4cli.WithClient(a.cfg.Client),
			p4cli.WithLogger(a.logger.Named("p4")),
		)
	}
	return a.adapter, nil
}

func (a *app) validators() (*validators.Set, error) {
	adapter, err := a.server()
	if err != nil {
		return nil, err
	}
	return validators.New(adapter, validators.WithLogger(a.logger.Named("validators"))), nil
}

func (a *app) checker() (*rules.Checker, error) {
	set, err := a.validators()
	if err != nil {
		return nil, err
	}
	return rules.NewChecker(set, rules.WithLogger(a.logger.Named("rules"))), nil
}

// rulesTable loads the table named by path, falling back to the configured
// one and then to the built-in jobspec rules. Directories are scanned for
// .yaml, .yml and .json files.
func (a *app) rulesTable(path string) (rules.Table, string, error) {
	if path == "" {
		path = a.cfg.Rules
	}
	if path == "" {
		table, err := p4form.DefaultRules()
		return table, builtinRules, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, path, fmt.Errorf("cli: rules %s: %w", path, err)
	}
	if info.IsDir() {
		table, err := rules.LoadFS(os.DirFS(path))
		return table, path, err
	}
	table, err := rules.LoadFile(path)
	return table, path, err
}
