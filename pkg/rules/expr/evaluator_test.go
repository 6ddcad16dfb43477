package expr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubPredicates struct {
	results map[string]bool
	calls   []string
}

func (s *stubPredicates) Resolve(name string, args []Value) error {
	if _, ok := s.results[name]; !ok {
		return ErrUnknownPredicate
	}
	return nil
}

func (s *stubPredicates) Call(_ context.Context, name string, args []Value) (bool, error) {
	texts := make([]string, 0, len(args))
	for _, arg := range args {
		texts = append(texts, arg.Text())
	}
	s.calls = append(s.calls, fmt.Sprintf("%s%q", name, texts))
	return s.results[name], nil
}

func newStub() *stubPredicates {
	return &stubPredicates{results: map[string]bool{
		"yes": true,
		"no":  false,
	}}
}

func eval(t *testing.T, src string, stub *stubPredicates) bool {
	t.Helper()
	program, err := Compile(src, stub)
	if err != nil {
		t.Fatalf("Compile(%q) returned error: %v", src, err)
	}
	ok, err := program.Eval(context.Background(), stub)
	if err != nil {
		t.Fatalf("Eval(%q) returned error: %v", src, err)
	}
	return ok
}

func TestEvaluatorLiterals(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"":          true,
		"true":      true,
		"false":     false,
		"nil":       false,
		`"text"`:    true,
		`""`:        true,
		"0":         true,
		"bareword":  true,
		"!true":     false,
		"not false": true,
	}
	for src, want := range cases {
		if got := eval(t, src, newStub()); got != want {
			t.Errorf("%q evaluated to %v, want %v", src, got, want)
		}
	}
}

func TestEvaluatorComparison(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		`"a" == "a"`:        true,
		`"a" != "a"`:        false,
		`'a' == "a"`:        true,
		`5 == 5.0`:          true,
		`5 == "5"`:          false,
		`"" == nil`:         false,
		`nil == nil`:        true,
		`true == yes()`:     true,
		`"open" != "closed"`: true,
	}
	for src, want := range cases {
		if got := eval(t, src, newStub()); got != want {
			t.Errorf("%q evaluated to %v, want %v", src, got, want)
		}
	}
}

func TestEvaluatorBooleanComposition(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"yes() && no()":            false,
		"yes() || no()":            true,
		"yes() and not no()":       true,
		"no() or (yes() and yes())": true,
		"!(yes() && yes())":        false,
		"no() || no() || yes()":    true,
	}
	for src, want := range cases {
		if got := eval(t, src, newStub()); got != want {
			t.Errorf("%q evaluated to %v, want %v", src, got, want)
		}
	}
}

func TestEvaluatorShortCircuit(t *testing.T) {
	t.Parallel()

	stub := newStub()
	if eval(t, `no("a") && yes("b")`, stub) {
		t.Fatalf("expected false")
	}
	if !eval(t, `yes("c") || no("d")`, stub) {
		t.Fatalf("expected true")
	}

	want := []string{`no["a"]`, `yes["c"]`}
	if diff := cmp.Diff(want, stub.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluatorCallArguments(t *testing.T) {
	t.Parallel()

	stub := newStub()
	eval(t, `yes("bob", 'it\'s', 12, bare, "multi\nline", "tab\there")`, stub)
	eval(t, "yes()", stub)
	eval(t, `yes(, "kind")`, stub)
	eval(t, "yes(\"spans\n\tlines\")", stub)

	want := []string{
		`yes["bob" "it's" "12" "bare" "multi\nline" "tab\there"]`,
		`yes[]`,
		`yes["" "kind"]`,
		`yes["spans\n\tlines"]`,
	}
	if diff := cmp.Diff(want, stub.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluatorKeywordsAreCaseSensitive(t *testing.T) {
	t.Parallel()

	stub := newStub()
	eval(t, "yes(TRUE, False, Nil, NULL, null, AND)", stub)
	if !eval(t, "NULL", stub) {
		t.Errorf("expected NULL to be a truthy word")
	}
	if !eval(t, "False", stub) {
		t.Errorf("expected False to be a truthy word")
	}

	want := []string{`yes["TRUE" "False" "Nil" "NULL" "null" "AND"]`}
	if diff := cmp.Diff(want, stub.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluatorEscapes(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		`"say \"hi\"" == 'say "hi"'`: true,
		`'a\'b' == "a'b"`:            true,
		`'a\nb' == "a\\nb"`:          true,
	}
	for src, want := range cases {
		if got := eval(t, src, newStub()); got != want {
			t.Errorf("%q evaluated to %v, want %v", src, got, want)
		}
	}
}

func TestCompileRejectsUnknownPredicate(t *testing.T) {
	t.Parallel()

	_, err := Compile(`yes("a") && system("rm -rf /")`, newStub())
	if !errors.Is(err, ErrUnknownPredicate) {
		t.Fatalf("expected ErrUnknownPredicate, got %v", err)
	}

	_, err = Compile(`yes("a")`, nil)
	if !errors.Is(err, ErrUnknownPredicate) {
		t.Fatalf("expected ErrUnknownPredicate without resolver, got %v", err)
	}
}

func TestCompileSyntaxErrors(t *testing.T) {
	t.Parallel()

	cases := []string{
		`yes("a"`,
		`(yes("a")`,
		`"unterminated`,
		`a = b`,
		`a & b`,
		`a | b`,
		`yes("a") yes("b")`,
		`yes("a" "b")`,
		`&&`,
		`!`,
	}
	for _, src := range cases {
		if _, err := Compile(src, newStub()); !errors.Is(err, ErrSyntax) {
			t.Errorf("Compile(%q) error = %v, want ErrSyntax", src, err)
		}
	}
}

func TestCompileTree(t *testing.T) {
	t.Parallel()

	program, err := Compile(`yes(1) || !("a" != b)`, newStub())
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	want := Or{
		Left: Call{Name: "yes", Args: []Value{Number("1")}},
		Right: Not{Inner: Compare{
			Left:   Literal{Value: String("a")},
			Right:  Literal{Value: String("b")},
			Negate: true,
		}},
	}
	if diff := cmp.Diff(Node(want), program.Root()); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}
