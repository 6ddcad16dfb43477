package validators

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-p4form/pkg/rules/expr"
)

// Predicate names available to rule expressions.
const (
	NameChangelist = "ischangelist"
	NameUserID     = "isuserid"
	NameJobID      = "isjobid"
	NameDepotPath  = "isdepotpath"
	NameFilePath   = "isfilepath"
	NameListOf     = "islistof"
)

var errArity = errors.New("validators: wrong number of arguments")

type singleCheck func(s *Set, ctx context.Context, value string) bool

var single = map[string]singleCheck{
	NameChangelist: (*Set).IsChangelist,
	NameUserID:     (*Set).IsUserID,
	NameJobID:      (*Set).IsJobID,
	NameDepotPath:  (*Set).IsDepotPath,
	NameFilePath:   (*Set).IsFilePath,
}

var (
	_ expr.Resolver = (*Set)(nil)
	_ expr.Caller   = (*Set)(nil)
)

// Names lists every predicate usable in a rule, sorted.
func Names() []string {
	out := make([]string, 0, len(single)+1)
	for name := range single {
		out = append(out, name)
	}
	out = append(out, NameListOf)
	sort.Strings(out)
	return out
}

// Resolve checks a call at compile time. Single-value predicates take at most
// one argument; islistof takes a list and the name of a single-value predicate.
func (s *Set) Resolve(name string, args []expr.Value) error {
	if _, ok := single[name]; ok {
		if len(args) > 1 {
			return fmt.Errorf("%w: %s takes one argument, got %d", errArity, name, len(args))
		}
		return nil
	}
	if name != NameListOf {
		return expr.ErrUnknownPredicate
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: %s takes two arguments, got %d", errArity, name, len(args))
	}
	kind := args[1].Text()
	if _, ok := single[kind]; !ok {
		return fmt.Errorf("validators: %s kind %q is not a single-value predicate", name, kind)
	}
	return nil
}

// Call runs a predicate resolved earlier by Resolve.
func (s *Set) Call(ctx context.Context, name string, args []expr.Value) (bool, error) {
	if check, ok := single[name]; ok {
		value := ""
		if len(args) > 0 {
			value = args[0].Text()
		}
		return check(s, ctx, value), nil
	}
	if name == NameListOf && len(args) == 2 {
		return s.IsListOf(ctx, args[0].Text(), args[1].Text()), nil
	}
	return false, fmt.Errorf("validators: %w %q", expr.ErrUnknownPredicate, name)
}
