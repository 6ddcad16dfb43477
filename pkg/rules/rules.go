package rules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-p4form/pkg/rules/expr"
)

// Placeholder is replaced by the field value before a rule is compiled.
const Placeholder = "$VALUE"

// templateSample stands in for the value when a rule is checked on its own.
const templateSample = "sample"

// ErrInvalidRule marks configuration faults: rules that reference unknown
// predicates or do not parse. It is never used for a value that fails a rule.
var ErrInvalidRule = errors.New("rules: invalid rule")

// Predicates resolves and runs the functions a rule may call.
type Predicates interface {
	expr.Resolver
	expr.Caller
}

// Evaluator decides whether a field value satisfies a rule.
type Evaluator interface {
	CheckField(ctx context.Context, rule, value string) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(ctx context.Context, rule, value string) (bool, error)

// CheckField delegates to the underlying function.
func (fn EvaluatorFunc) CheckField(ctx context.Context, rule, value string) (bool, error) {
	return fn(ctx, rule, value)
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger logs values that break rule syntax at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Checker is the default Evaluator. Template checks are cached, so a Checker
// is meant to be reused across forms. It is safe for concurrent use when its
// predicates are.
type Checker struct {
	predicates Predicates
	logger     *zap.Logger

	mu        sync.RWMutex
	templates map[string]error
}

var _ Evaluator = (*Checker)(nil)

// NewChecker returns a Checker resolving calls through predicates.
func NewChecker(predicates Predicates, options ...Option) *Checker {
	c := &Checker{
		predicates: predicates,
		logger:     zap.NewNop(),
		templates:  make(map[string]error),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Substitute replaces every occurrence of $VALUE in rule with value.
func Substitute(rule, value string) string {
	return strings.ReplaceAll(rule, Placeholder, value)
}

// CheckField reports whether value satisfies rule. A blank rule always
// passes. A rule that is itself malformed yields an ErrInvalidRule error; a
// value that breaks an otherwise sound rule (an unbalanced quote, say) simply
// fails it.
func (c *Checker) CheckField(ctx context.Context, rule, value string) (bool, error) {
	if strings.TrimSpace(rule) == "" {
		return true, nil
	}
	if err := c.CheckTemplate(rule); err != nil {
		return false, err
	}

	program, err := expr.Compile(Substitute(rule, value), c.predicates)
	if err != nil {
		c.logger.Debug("value does not fit rule",
			zap.String("rule", rule),
			zap.String("value", value),
			zap.Error(err))
		return false, nil
	}

	ok, err := program.Eval(ctx, c.predicates)
	if err != nil {
		return false, fmt.Errorf("%w: evaluate %q: %v", ErrInvalidRule, program.Source(), err)
	}
	return ok, nil
}

// CheckTemplate compiles rule with a sample value to catch configuration
// faults before any form is checked.
func (c *Checker) CheckTemplate(rule string) error {
	c.mu.RLock()
	cached, ok := c.templates[rule]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	var result error
	if _, err := expr.Compile(Substitute(rule, templateSample), c.predicates); err != nil {
		result = fmt.Errorf("%w %q: %v", ErrInvalidRule, rule, err)
	}

	c.mu.Lock()
	c.templates[rule] = result
	c.mu.Unlock()
	return result
}

// CheckTable checks every rule in table and joins the failures, each
// prefixed with its field name.
func (c *Checker) CheckTable(table Table) error {
	var errs []error
	for _, field := range table.Fields() {
		if err := c.CheckTemplate(table[field]); err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", field, err))
		}
	}
	return errors.Join(errs...)
}

// Table maps field names to rules. A field without an entry has no rule.
type Table map[string]string

// Rule returns the rule for field, or "" when there is none.
func (t Table) Rule(field string) string {
	if t == nil {
		return ""
	}
	return t[field]
}

// Fields returns the field names with a rule, sorted.
func (t Table) Fields() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
