package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-p4form/pkg/form"
	"github.com/goliatone/go-p4form/pkg/rules"
)

// errRejected is what the prompt validator reports for a value that fails its
// rule; survey shows it and asks again.
var errRejected = errors.New("value does not satisfy the field rule")

// Option configures a Repairer.
type Option func(*Repairer)

// WithLogger sets the logger used for skipped fields.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repairer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConfirm asks before returning the repaired form.
func WithConfirm(confirm bool) Option {
	return func(r *Repairer) {
		r.confirm = confirm
	}
}

// Repairer walks the invalid fields of a form and prompts for replacements.
//
// Answers are offered to the driver's validator first. The survey driver
// re-asks until the validator passes, so a failing answer only comes back
// from drivers that ignore the validator (scripted or non-interactive
// input). Repair re-checks every answer and keeps the original value when
// the answer still fails.
type Repairer struct {
	driver  Driver
	eval    rules.Evaluator
	table   rules.Table
	logger  *zap.Logger
	confirm bool
}

// NewRepairer binds a prompt driver to the rules used for re-checking answers.
func NewRepairer(driver Driver, eval rules.Evaluator, table rules.Table, options ...Option) *Repairer {
	r := &Repairer{
		driver: driver,
		eval:   eval,
		table:  table,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Repair prompts for every name in invalid and returns the updated form along
// with the names that still fail. The input form is left untouched. Answers
// are checked with the same rule the field failed; an empty answer removes
// the field.
func (r *Repairer) Repair(ctx context.Context, f *form.Form, invalid []string) (*form.Form, []string, error) {
	out := f
	remaining := []string{}
	changed := 0

	for _, name := range invalid {
		rule := r.table.Rule(name)
		current, _ := out.Field(name)

		answer, err := r.ask(ctx, name, rule, current)
		if err != nil {
			return f, invalid, err
		}

		ok, err := r.eval.CheckField(ctx, rule, answer)
		if err != nil {
			return f, invalid, fmt.Errorf("prompt: field %s: %w", name, err)
		}
		if !ok {
			r.logger.Debug("answer still fails rule", zap.String("field", name), zap.String("rule", rule))
			remaining = append(remaining, name)
			if err := r.driver.Info(ctx, fmt.Sprintf("%s: still invalid, keeping the original value", name)); err != nil {
				return f, invalid, err
			}
			continue
		}
		if answer != current {
			out = out.WithField(name, answer)
			changed++
		}
	}

	if changed == 0 || !r.confirm {
		return out, remaining, nil
	}
	apply, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Apply %d change(s)?", changed),
		Default: true,
	})
	if err != nil {
		return f, invalid, err
	}
	if !apply {
		return f, invalid, nil
	}
	return out, remaining, nil
}

func (r *Repairer) ask(ctx context.Context, name, rule, current string) (string, error) {
	validate := func(answer string) error {
		ok, err := r.eval.CheckField(ctx, rule, answer)
		if err != nil {
			return err
		}
		if !ok {
			return errRejected
		}
		return nil
	}
	help := "rule: " + rule

	if strings.Contains(current, "\n") {
		return r.driver.TextArea(ctx, TextAreaConfig{
			Message:   name,
			Default:   current,
			Help:      help,
			Validator: validate,
		})
	}
	return r.driver.Input(ctx, InputConfig{
		Message:   name,
		Default:   strings.TrimSpace(current),
		Help:      help,
		Validator: validate,
	})
}
