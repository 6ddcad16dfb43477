// Package p4form parses Perforce job forms and checks their fields against
// per-field rules before submission.
//
// The packages under pkg/ can be used directly; this package re-exports the
// common types and wires them together for the usual case:
//
//	table, _ := p4form.LoadRules("rules/jobs.yaml")
//	invalid, err := p4form.Validate(ctx, text, adapter, table)
package p4form

import (
	"context"
	"io"

	"github.com/goliatone/go-p4form/pkg/form"
	"github.com/goliatone/go-p4form/pkg/p4"
	"github.com/goliatone/go-p4form/pkg/rules"
	"github.com/goliatone/go-p4form/pkg/validators"
)

// Form is a parsed job form.
type Form = form.Form

// Table maps field names to rule text.
type Table = rules.Table

// Adapter answers existence queries against the server.
type Adapter = p4.Adapter

// Checker evaluates rules against field values.
type Checker = rules.Checker

// Parse reads a form from text.
func Parse(text string) *Form {
	return form.Parse(text)
}

// ParseReader reads a form from r.
func ParseReader(r io.Reader) (*Form, error) {
	return form.ParseReader(r)
}

// LoadRules reads a rule table from a YAML or JSON file.
func LoadRules(path string) (Table, error) {
	return rules.LoadFile(path)
}

// NewValidators binds the semantic validators to adapter.
func NewValidators(adapter Adapter, options ...validators.Option) *validators.Set {
	return validators.New(adapter, options...)
}

// NewChecker returns a rule checker whose predicates query adapter.
func NewChecker(adapter Adapter, options ...rules.Option) *Checker {
	return rules.NewChecker(validators.New(adapter), options...)
}

// Validate parses text and returns the names of the fields that fail their
// rule in table, in form order. The table is checked first so that a
// malformed rule is reported even when no field uses it.
func Validate(ctx context.Context, text string, adapter Adapter, table Table) ([]string, error) {
	checker := NewChecker(adapter)
	if err := checker.CheckTable(table); err != nil {
		return nil, err
	}
	return form.Parse(text).Validate(ctx, checker, table)
}

// Email returns the address on file for userID.
func Email(ctx context.Context, adapter Adapter, userID string) (string, bool) {
	return validators.New(adapter).Email(ctx, userID)
}
