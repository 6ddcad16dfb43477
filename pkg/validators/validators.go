package validators

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-p4form/pkg/p4"
	"github.com/goliatone/go-p4form/pkg/textset"
)

var (
	changelistPattern = regexp.MustCompile(`^[1-9][0-9]*$`)
	identPattern      = regexp.MustCompile(`^[-_.A-Za-z0-9]+$`)
	depotPathPattern  = regexp.MustCompile(`^//\S`)
)

// Set binds the validators to an adapter.
type Set struct {
	adapter p4.Adapter
	logger  *zap.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithLogger routes query failures to logger at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Set) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns validators backed by adapter.
func New(adapter p4.Adapter, options ...Option) *Set {
	s := &Set{
		adapter: adapter,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// IsChangelist accepts a positive number without leading zeros naming an
// existing changelist.
func (s *Set) IsChangelist(ctx context.Context, value string) bool {
	v, blank := normalize(value)
	if blank {
		return true
	}
	if !changelistPattern.MatchString(v) {
		return false
	}
	return s.query(ctx, NameChangelist, v, func() (bool, error) {
		return s.adapter.ChangelistExists(ctx, v)
	})
}

// IsUserID accepts a known user id.
func (s *Set) IsUserID(ctx context.Context, value string) bool {
	v, blank := normalize(value)
	if blank {
		return true
	}
	if !identPattern.MatchString(v) {
		return false
	}
	return s.query(ctx, NameUserID, v, func() (bool, error) {
		return s.adapter.UserExists(ctx, v)
	})
}

// IsJobID accepts a job whose spec is archived in the spec depot. The server
// must have the spec depot enabled; the check relies on the line-count proxy.
func (s *Set) IsJobID(ctx context.Context, value string) bool {
	v, blank := normalize(value)
	if blank {
		return true
	}
	if !identPattern.MatchString(v) {
		return false
	}
	return s.query(ctx, NameJobID, v, func() (bool, error) {
		return s.adapter.JobSpecExists(ctx, v)
	})
}

// IsDepotPath is a syntax-only check: "//" followed by a non-space.
func (s *Set) IsDepotPath(_ context.Context, value string) bool {
	v, blank := normalize(value)
	if blank {
		return true
	}
	return depotPathPattern.MatchString(v)
}

// IsFilePath accepts a depot path naming an existing file. Paths ending in
// "..." are patterns, not files, and are rejected without a query.
func (s *Set) IsFilePath(ctx context.Context, value string) bool {
	v, blank := normalize(value)
	if blank {
		return true
	}
	if strings.HasSuffix(v, "...") {
		return false
	}
	if !depotPathPattern.MatchString(v) {
		return false
	}
	return s.query(ctx, NameFilePath, v, func() (bool, error) {
		lines, err := s.adapter.FileStatusLineCount(ctx, v)
		if err != nil {
			return false, err
		}
		return p4.ExistsByLineCount(lines), nil
	})
}

// IsListOf splits list into tokens and requires each to pass the validator
// named by kind. Tokens containing a double quote fail outright.
func (s *Set) IsListOf(ctx context.Context, list, kind string) bool {
	check, ok := single[kind]
	if !ok {
		s.logger.Debug("islistof: unknown kind", zap.String("kind", kind))
		return false
	}
	for _, item := range textset.Extract(list) {
		if strings.ContainsRune(item, '"') {
			return false
		}
		if !check(s, ctx, item) {
			return false
		}
	}
	return true
}

// Email returns the address for userID. Ids that already look like an
// address are returned unchanged. The server returns a record for any name,
// so a false result means "no email on file" rather than "no such user".
func (s *Set) Email(ctx context.Context, userID string) (string, bool) {
	if strings.Contains(userID, "@") {
		return userID, true
	}
	if s.adapter == nil {
		return "", false
	}
	email, ok, err := s.adapter.UserEmail(ctx, userID)
	if err != nil {
		s.logger.Debug("email lookup failed", zap.String("user", userID), zap.Error(err))
		return "", false
	}
	return email, ok
}

func (s *Set) query(ctx context.Context, name, value string, fn func() (bool, error)) bool {
	if s.adapter == nil {
		s.logger.Debug("no adapter configured", zap.String("predicate", name), zap.String("value", value))
		return false
	}
	ok, err := fn()
	if err != nil {
		s.logger.Debug("existence query failed",
			zap.String("predicate", name),
			zap.String("value", value),
			zap.Error(err))
		return false
	}
	return ok
}

func normalize(value string) (string, bool) {
	v := strings.TrimSpace(value)
	return v, v == ""
}
