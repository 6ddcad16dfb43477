package expr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Compiled rules follow a small closed grammar:
//
//   - literals: "text", 'text', 12, true, false, nil, bare words (as text)
//   - keywords are lowercase only
//   - predicate calls: isuserid("bob"), islistof("a,b", "isuserid")
//   - comparisons: a == b, a != b
//   - composition: &&, ||, ! and their keyword forms and, or, not
//   - grouping with parentheses
//
// Predicate names are resolved against a Resolver when the rule is compiled,
// so an unknown name never reaches evaluation.

var (
	// ErrSyntax marks rules that cannot be tokenized or parsed.
	ErrSyntax = errors.New("rules/expr: syntax error")
	// ErrUnknownPredicate marks calls to predicates the resolver does not know.
	ErrUnknownPredicate = errors.New("rules/expr: unknown predicate")
)

// Resolver validates a predicate call at compile time. It returns
// ErrUnknownPredicate (possibly wrapped) for names it does not know and any
// other error for calls with unusable arguments.
type Resolver interface {
	Resolve(name string, args []Value) error
}

// Caller invokes a resolved predicate during evaluation.
type Caller interface {
	Call(ctx context.Context, name string, args []Value) (bool, error)
}

// Program is a compiled rule. It is immutable and safe for concurrent use.
type Program struct {
	source string
	root   Node
}

// Compile tokenizes and parses src, resolving every predicate call through
// resolver. An empty source compiles to a program that always passes.
func Compile(src string, resolver Resolver) (*Program, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return &Program{source: src}, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return &Program{source: src}, nil
	}

	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	if err := resolveCalls(root, resolver); err != nil {
		return nil, err
	}
	return &Program{source: src, root: root}, nil
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.source }

// Root returns the parsed tree, or nil for an empty program.
func (p *Program) Root() Node { return p.root }

// Eval runs the program and reports whether the result is truthy.
func (p *Program) Eval(ctx context.Context, caller Caller) (bool, error) {
	if p == nil || p.root == nil {
		return true, nil
	}
	value, err := evalNode(ctx, p.root, caller)
	if err != nil {
		return false, err
	}
	return value.Truthy(), nil
}

func resolveCalls(node Node, resolver Resolver) error {
	switch n := node.(type) {
	case Call:
		if resolver == nil {
			return fmt.Errorf("%w %q", ErrUnknownPredicate, n.Name)
		}
		if err := resolver.Resolve(n.Name, n.Args); err != nil {
			return fmt.Errorf("rules/expr: %s: %w", n.Name, err)
		}
		return nil
	case And:
		if err := resolveCalls(n.Left, resolver); err != nil {
			return err
		}
		return resolveCalls(n.Right, resolver)
	case Or:
		if err := resolveCalls(n.Left, resolver); err != nil {
			return err
		}
		return resolveCalls(n.Right, resolver)
	case Not:
		return resolveCalls(n.Inner, resolver)
	case Compare:
		if err := resolveCalls(n.Left, resolver); err != nil {
			return err
		}
		return resolveCalls(n.Right, resolver)
	default:
		return nil
	}
}

func evalNode(ctx context.Context, node Node, caller Caller) (Value, error) {
	switch n := node.(type) {
	case Literal:
		return n.Value, nil
	case Call:
		if caller == nil {
			return Value{}, fmt.Errorf("rules/expr: no caller for predicate %q", n.Name)
		}
		ok, err := caller.Call(ctx, n.Name, n.Args)
		if err != nil {
			return Value{}, err
		}
		return Bool(ok), nil
	case Or:
		left, err := evalNode(ctx, n.Left, caller)
		if err != nil {
			return Value{}, err
		}
		if left.Truthy() {
			return Bool(true), nil
		}
		right, err := evalNode(ctx, n.Right, caller)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	case And:
		left, err := evalNode(ctx, n.Left, caller)
		if err != nil {
			return Value{}, err
		}
		if !left.Truthy() {
			return Bool(false), nil
		}
		right, err := evalNode(ctx, n.Right, caller)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	case Not:
		inner, err := evalNode(ctx, n.Inner, caller)
		if err != nil {
			return Value{}, err
		}
		return Bool(!inner.Truthy()), nil
	case Compare:
		left, err := evalNode(ctx, n.Left, caller)
		if err != nil {
			return Value{}, err
		}
		right, err := evalNode(ctx, n.Right, caller)
		if err != nil {
			return Value{}, err
		}
		equal := left.Equal(right)
		if n.Negate {
			return Bool(!equal), nil
		}
		return Bool(equal), nil
	default:
		return Value{}, fmt.Errorf("rules/expr: unsupported node %T", node)
	}
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNil
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	consume := func() byte {
		if i >= len(input) {
			return 0
		}
		ch := input[i]
		i++
		return ch
	}

	for i < len(input) {
		ch := next()
		if isSpace(ch) {
			i++
			continue
		}

		switch ch {
		case '(':
			consume()
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			continue
		case ')':
			consume()
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			continue
		case ',':
			consume()
			tokens = append(tokens, token{kind: tokenComma, raw: ","})
			continue
		case '!':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			continue
		case '=':
			consume()
			if next() != '=' {
				return nil, fmt.Errorf("%w: unexpected '='; use '=='", ErrSyntax)
			}
			consume()
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			continue
		case '&':
			consume()
			if next() != '&' {
				return nil, fmt.Errorf("%w: unexpected '&'; use '&&'", ErrSyntax)
			}
			consume()
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			continue
		case '|':
			consume()
			if next() != '|' {
				return nil, fmt.Errorf("%w: unexpected '|'; use '||'", ErrSyntax)
			}
			consume()
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			continue
		case '"', '\'':
			quote := consume()
			value, n, err := scanString(input[i:], quote)
			if err != nil {
				return nil, err
			}
			i += n
			tokens = append(tokens, token{kind: tokenString, raw: value})
			continue
		}

		start := i
		for i < len(input) && !isWordBreak(input[i]) {
			i++
		}
		raw := input[start:i]
		if raw == "" {
			return nil, fmt.Errorf("%w: unexpected character %q", ErrSyntax, ch)
		}
		// Keywords are case sensitive; "NULL" or "True" stay plain words.
		switch raw {
		case "true", "false":
			tokens = append(tokens, token{kind: tokenBool, raw: raw})
		case "nil":
			tokens = append(tokens, token{kind: tokenNil, raw: raw})
		case "and":
			tokens = append(tokens, token{kind: tokenAnd, raw: raw})
		case "or":
			tokens = append(tokens, token{kind: tokenOr, raw: raw})
		case "not":
			tokens = append(tokens, token{kind: tokenNot, raw: raw})
		default:
			if looksLikeNumber(raw) {
				tokens = append(tokens, token{kind: tokenNumber, raw: raw})
			} else {
				tokens = append(tokens, token{kind: tokenWord, raw: raw})
			}
		}
	}

	return tokens, nil
}

// scanString reads a quoted literal whose opening quote was already consumed.
// Literals may span lines. Inside double quotes \n and \t are expanded; any
// other escaped character stands for itself.
func scanString(input string, quote byte) (string, int, error) {
	var b strings.Builder
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(input):
			i++
			escaped := input[i]
			if quote == '"' {
				switch escaped {
				case 'n':
					escaped = '\n'
				case 't':
					escaped = '\t'
				}
			} else if escaped != '\'' && escaped != '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(escaped)
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("%w: unterminated string literal", ErrSyntax)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isWordBreak(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '(', ')', ',', '!', '=', '&', '|', '"', '\'':
		return true
	default:
		return false
	}
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	if !((ch >= '0' && ch <= '9') || ch == '-' || ch == '+' || ch == '.') {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (Node, error) {
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("%w: unexpected token %q", ErrSyntax, stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (Node, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (Node, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (Node, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return parseCompare(stream)
}

func parseCompare(stream *tokenStream) (Node, error) {
	left, err := parsePrimary(stream)
	if err != nil {
		return nil, err
	}
	switch {
	case stream.match(tokenEq):
		right, err := parsePrimary(stream)
		if err != nil {
			return nil, err
		}
		return Compare{Left: left, Right: right}, nil
	case stream.match(tokenNeq):
		right, err := parsePrimary(stream)
		if err != nil {
			return nil, err
		}
		return Compare{Left: left, Right: right, Negate: true}, nil
	default:
		return left, nil
	}
}

func parsePrimary(stream *tokenStream) (Node, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, fmt.Errorf("%w: missing closing ')'", ErrSyntax)
		}
		return inner, nil
	}

	if word, ok := stream.consume(tokenWord); ok {
		if stream.match(tokenLParen) {
			args, err := parseArgs(stream)
			if err != nil {
				return nil, err
			}
			return Call{Name: word.raw, Args: args}, nil
		}
		// Bare words are text, which keeps unquoted $VALUE substitutions usable.
		return Literal{Value: String(word.raw)}, nil
	}

	value, err := stream.consumeLiteral()
	if err != nil {
		return nil, err
	}
	return Literal{Value: value}, nil
}

func parseArgs(stream *tokenStream) ([]Value, error) {
	var args []Value
	if stream.match(tokenRParen) {
		return args, nil
	}
	for {
		if stream.peek(tokenComma) || stream.peek(tokenRParen) {
			// f(, x) or f(x, ) after an empty substitution: an absent argument.
			args = append(args, Nil())
		} else {
			value, err := stream.consumeLiteral()
			if err != nil {
				return nil, err
			}
			args = append(args, value)
		}
		if stream.match(tokenRParen) {
			return args, nil
		}
		if !stream.match(tokenComma) {
			if stream.pos >= len(stream.tokens) {
				return nil, fmt.Errorf("%w: missing closing ')' in call", ErrSyntax)
			}
			return nil, fmt.Errorf("%w: expected ',' or ')', got %q", ErrSyntax, stream.tokens[stream.pos].raw)
		}
	}
}

func (s *tokenStream) peek(kind tokenKind) bool {
	return s.pos < len(s.tokens) && s.tokens[s.pos].kind == kind
}

func (s *tokenStream) match(kind tokenKind) bool {
	if !s.peek(kind) {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if !s.peek(kind) {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (Value, error) {
	if s.pos >= len(s.tokens) {
		return Value{}, fmt.Errorf("%w: unexpected end of rule", ErrSyntax)
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString, tokenWord:
		return String(tok.raw), nil
	case tokenNumber:
		return Number(tok.raw), nil
	case tokenBool:
		return Bool(tok.raw == "true"), nil
	case tokenNil:
		return Nil(), nil
	default:
		return Value{}, fmt.Errorf("%w: expected literal, got %q", ErrSyntax, tok.raw)
	}
}
