package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-p4form/pkg/report"
	"github.com/goliatone/go-p4form/pkg/rules"
)

type validateOptions struct {
	rulesPath string
	fields    []string
	format    string
	output    string
	jobs      int
}

func newValidateCommand(a *app) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <form>...",
		Short: "Check job forms against a rule table",
		Long: `Check one or more job forms against a rule table and report the fields
that fail. Forms are validated concurrently (--jobs).

The command exits with status 2 when any form has an invalid field, and 1 on
configuration errors such as a malformed rule.

Examples:
  p4form validate --rules rules/jobs.yaml job000123.form
  p4form validate --rules rules/ --format json forms/*.form
  p4form validate --rules rules/jobs.yaml --fields User,Fixes job000123.form
  p4 job -o job000123 | p4form validate --rules rules/jobs.yaml -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				opts.format = a.cfg.Format
			}
			if !cmd.Flags().Changed("jobs") {
				opts.jobs = a.cfg.Jobs
			}
			return a.runValidate(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.rulesPath, "rules", "r", "", "Rule table file or directory")
	cmd.Flags().StringSliceVarP(&opts.fields, "fields", "f", nil, "Only check these fields (missing ones are checked as empty)")
	cmd.Flags().StringVar(&opts.format, "format", report.FormatText, "Report format: text, json or html")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 4, "Number of forms validated in parallel")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, opts validateOptions, files []string) error {
	renderer, err := report.New(opts.format)
	if err != nil {
		return err
	}
	table, source, err := a.rulesTable(opts.rulesPath)
	if err != nil {
		return err
	}
	checker, err := a.checker()
	if err != nil {
		return err
	}
	if err := checker.CheckTable(table); err != nil {
		return fmt.Errorf("cli: rules %s: %w", source, err)
	}

	jobs := opts.jobs
	if jobs < 1 {
		jobs = 1
	}
	a.logger.Debug("validating forms",
		zap.Int("forms", len(files)),
		zap.Int("jobs", jobs),
		zap.String("rules", source))

	ctx := cmd.Context()

	results := make([]report.Result, len(files))
	p := pool.New().WithMaxGoroutines(jobs)
	for i, file := range files {
		p.Go(func() {
			results[i] = a.validateFile(ctx, cmd, checker, table, opts.fields, file)
		})
	}
	p.Wait()

	if err := writeOutput(cmd.OutOrStdout(), opts.output, func(w io.Writer) error {
		return renderer.Render(w, results)
	}); err != nil {
		return err
	}

	errored := 0
	for _, r := range results {
		if r.Err != nil {
			errored++
		}
	}
	if errored > 0 {
		return fmt.Errorf("cli: %d of %d form(s) could not be checked", errored, len(results))
	}
	if failed := report.Failed(results); failed > 0 {
		return fmt.Errorf("%w: %d of %d form(s) failed", ErrInvalidForms, failed, len(results))
	}
	return nil
}

func (a *app) validateFile(ctx context.Context, cmd *cobra.Command, checker rules.Evaluator, table rules.Table, fields []string, file string) report.Result {
	result := report.Result{File: file}

	f, err := readForm(cmd.InOrStdin(), file)
	if err != nil {
		result.Err = err
		return result
	}

	var invalid []string
	if len(fields) > 0 {
		result.Checked = len(fields)
		invalid, err = f.ValidateFields(ctx, fields, checker, table)
	} else {
		result.Checked = f.Fields().Len()
		invalid, err = f.Validate(ctx, checker, table)
	}
	if err != nil {
		result.Err = err
		return result
	}

	for _, name := range invalid {
		value, _ := f.Field(name)
		result.Invalid = append(result.Invalid, report.Finding{
			Field: name,
			Value: value,
			Rule:  table.Rule(name),
		})
	}
	a.logger.Debug("form validated",
		zap.String("file", file),
		zap.Strings("invalid", invalid))
	return result
}
