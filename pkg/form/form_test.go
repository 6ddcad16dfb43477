package form_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-p4form/pkg/form"
	"github.com/goliatone/go-p4form/pkg/p4"
	"github.com/goliatone/go-p4form/pkg/rules"
	"github.com/goliatone/go-p4form/pkg/testsupport"
	"github.com/goliatone/go-p4form/pkg/validators"
)

func TestParseSingleAndMultiLineFields(t *testing.T) {
	t.Parallel()

	f := form.Parse("Field1: hello\nField2:\n\tline1\n\tline2\n")

	want := map[string]string{
		"Field1": "hello",
		"Field2": "\n\tline1\n\tline2",
	}
	if diff := cmp.Diff(want, f.Fields().Map()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Field1", "Field2"}, f.Fields().Keys()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReservedFields(t *testing.T) {
	t.Parallel()

	f := form.Parse("Job: job1\nEJPUserID: alice\nEJPChain: j1, j2\n")

	uid, ok := f.UserID()
	if !ok || uid != "alice" {
		t.Fatalf("UserID() = %q, %v; want alice, true", uid, ok)
	}
	if diff := cmp.Diff([]string{"j1", "j2"}, f.Chain()); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{}, f.RevNum()); diff != "" {
		t.Fatalf("revnum mismatch (-want +got):\n%s", diff)
	}
	for _, name := range []string{form.FieldUserID, form.FieldChain, form.FieldRevNum} {
		if f.Fields().Has(name) {
			t.Fatalf("reserved field %s leaked into fields", name)
		}
	}
	if diff := cmp.Diff([]string{"Job"}, f.Fields().Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDefaultsWithoutReservedFields(t *testing.T) {
	t.Parallel()

	f := form.Parse("Job: job1\n")
	if _, ok := f.UserID(); ok {
		t.Fatalf("expected no user id")
	}
	if len(f.Chain()) != 0 || len(f.RevNum()) != 0 {
		t.Fatalf("expected empty chain and revnum, got %v %v", f.Chain(), f.RevNum())
	}
}

func TestParseEdgeCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  map[string]string
		keys  []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "blank fields dropped",
			input: "A:\nB:   \n\t \nC: x\n",
			want:  map[string]string{"C": "x"},
			keys:  []string{"C"},
		},
		{
			name:  "continuation without open field discarded",
			input: "\torphan\n  also orphan\nA: 1\n",
			want:  map[string]string{"A": "1"},
			keys:  []string{"A"},
		},
		{
			name:  "comments skipped inside a field",
			input: "A: first\n# comment\n\tsecond\n",
			want:  map[string]string{"A": "first\n\tsecond"},
			keys:  []string{"A"},
		},
		{
			name:  "overwrite keeps first position",
			input: "A: 1\nB: 2\nA: 3\n",
			want:  map[string]string{"A": "3", "B": "2"},
			keys:  []string{"A", "B"},
		},
		{
			name:  "blank redefinition keeps earlier value",
			input: "A: 1\nA:\n",
			want:  map[string]string{"A": "1"},
			keys:  []string{"A"},
		},
		{
			name:  "name trimmed and value keeps later colons",
			input: "Date :\t2005/01/02 10:11:12\n",
			want:  map[string]string{"Date": "2005/01/02 10:11:12"},
			keys:  []string{"Date"},
		},
		{
			name:  "crlf line endings",
			input: "A: 1\r\nB:\r\n\tx\r\n",
			want:  map[string]string{"A": "1", "B": "\n\tx"},
			keys:  []string{"A", "B"},
		},
		{
			name:  "line without colon",
			input: "Orphan\n",
			want:  map[string]string{"Orphan": "Orphan"},
			keys:  []string{"Orphan"},
		},
		{
			name:  "trailing whitespace preserved",
			input: "A: value  \n",
			want:  map[string]string{"A": "value  "},
			keys:  []string{"A"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := form.Parse(tc.input)
			if diff := cmp.Diff(tc.want, f.Fields().Map()); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.keys, f.Fields().Keys()); diff != "" {
				t.Fatalf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseReaderMatchesParse(t *testing.T) {
	t.Parallel()

	text := testsupport.MustReadGoldenString(t, "testdata/job000001.form")
	fromReader, err := form.ParseReader(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseReader returned error: %v", err)
	}
	fromString := form.Parse(text)

	if diff := cmp.Diff(fromString.Fields().Map(), fromReader.Fields().Map()); diff != "" {
		t.Fatalf("fields mismatch (-string +reader):\n%s", diff)
	}
	if diff := cmp.Diff(fromString.Chain(), fromReader.Chain()); diff != "" {
		t.Fatalf("chain mismatch (-string +reader):\n%s", diff)
	}
}

func TestPrintGolden(t *testing.T) {
	t.Parallel()

	f := testsupport.LoadForm(t, "testdata/job000001.form")
	got := testsupport.PrintForm(t, f)
	if testsupport.WriteMaybeGolden(t, "testdata/job000001.golden", []byte(got)) {
		return
	}

	want := testsupport.MustReadGoldenString(t, "testdata/job000001.golden")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("print mismatch (-want +got):\n%s", diff)
	}

	uid, _ := f.UserID()
	if uid != "admin" {
		t.Fatalf("UserID() = %q, want admin", uid)
	}
	if diff := cmp.Diff([]string{"job000002", "job000003"}, f.Chain()); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"3"}, f.RevNum()); diff != "" {
		t.Fatalf("revnum mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintReparsesToSameFields(t *testing.T) {
	t.Parallel()

	f := testsupport.LoadForm(t, "testdata/job000001.form")
	again := form.Parse(f.String())
	if diff := cmp.Diff(f.Fields().Map(), again.Fields().Map()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWithFieldLeavesOriginalUntouched(t *testing.T) {
	t.Parallel()

	f := form.Parse("A: 1\nB: 2\nEJPChain: j1\n")
	updated := f.WithField("A", "9").WithField("C", "3").WithField("B", " ")

	if diff := cmp.Diff(map[string]string{"A": "1", "B": "2"}, f.Fields().Map()); diff != "" {
		t.Fatalf("original mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "C"}, updated.Fields().Keys()); diff != "" {
		t.Fatalf("updated keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := updated.Field("A"); v != "9" {
		t.Fatalf("updated A = %q, want 9", v)
	}
	if diff := cmp.Diff([]string{"j1"}, updated.Chain()); diff != "" {
		t.Fatalf("chain not carried over (-want +got):\n%s", diff)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrintPropagatesWriteErrors(t *testing.T) {
	t.Parallel()

	if err := form.Parse("A: 1\n").Print(failingWriter{}); err == nil {
		t.Fatalf("expected write error")
	}
}

func newChecker(fake *p4.Fake) *rules.Checker {
	return rules.NewChecker(validators.New(fake))
}

func TestValidateWithoutRules(t *testing.T) {
	t.Parallel()

	f := testsupport.LoadForm(t, "testdata/job000001.form")
	invalid, err := f.Validate(context.Background(), newChecker(p4.NewFake()), rules.Table{})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if diff := cmp.Diff([]string{}, invalid); diff != "" {
		t.Fatalf("invalid mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateChangelistExistence(t *testing.T) {
	t.Parallel()

	f := form.Parse("X: 5\n")
	table := rules.Table{"X": "ischangelist($VALUE)"}

	invalid, err := f.Validate(context.Background(), newChecker(p4.NewFake().WithChangelists("5")), table)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if diff := cmp.Diff([]string{}, invalid); diff != "" {
		t.Fatalf("expected changelist 5 to pass (-want +got):\n%s", diff)
	}

	invalid, err = f.Validate(context.Background(), newChecker(p4.NewFake()), table)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"X"}, invalid); diff != "" {
		t.Fatalf("expected X to fail (-want +got):\n%s", diff)
	}
}

func TestValidateFixture(t *testing.T) {
	t.Parallel()

	f := testsupport.LoadForm(t, "testdata/job000001.form")
	fake := p4.NewFake().
		WithUser("karen", "karen@example.com").
		WithJobs("job000001").
		WithChangelists("1")
	table := rules.Table{
		"Job":    `isjobid("$VALUE")`,
		"Status": `"$VALUE" == "open" || "$VALUE" == "closed" || "$VALUE" == "suspended"`,
		"User":   `isuserid("$VALUE")`,
		"Fixes":  `islistof("$VALUE", "ischangelist")`,
		"Extra":  `isdepotpath("$VALUE")`,
	}

	invalid, err := f.Validate(context.Background(), newChecker(fake), table)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Fixes"}, invalid); diff != "" {
		t.Fatalf("invalid mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateSharedFixtures(t *testing.T) {
	t.Parallel()

	server := testsupport.LoadServer(t, "../../testdata/server/fixture.yaml")
	table := testsupport.LoadRules(t, "../../testdata/rules/jobs.yaml")
	checker := newChecker(server)

	cases := map[string][]string{
		"../../testdata/forms/job000001.form": {},
		"../../testdata/forms/job000002.form": {"User", "Fixes", "OwnedFiles", "Parent"},
	}
	for path, want := range cases {
		invalid, err := testsupport.LoadForm(t, path).Validate(context.Background(), checker, table)
		if err != nil {
			t.Fatalf("%s: Validate returned error: %v", path, err)
		}
		if diff := cmp.Diff(want, invalid); diff != "" {
			t.Fatalf("%s: invalid mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func TestValidateFields(t *testing.T) {
	t.Parallel()

	f := form.Parse("User: nobody\nJob: job1\n")
	table := rules.Table{
		"User":    `isuserid("$VALUE")`,
		"Job":     `isjobid("$VALUE")`,
		"Missing": `isuserid("$VALUE")`,
		"Status":  `"$VALUE" == "open"`,
	}

	invalid, err := f.ValidateFields(context.Background(), []string{"Missing", "Status", "User"}, newChecker(p4.NewFake()), table)
	if err != nil {
		t.Fatalf("ValidateFields returned error: %v", err)
	}
	// Missing passes vacuously, Status compares "" with "open", Job is not requested.
	if diff := cmp.Diff([]string{"Status", "User"}, invalid); diff != "" {
		t.Fatalf("invalid mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateSurfacesRuleErrors(t *testing.T) {
	t.Parallel()

	f := form.Parse("User: karen\n")
	_, err := f.Validate(context.Background(), newChecker(p4.NewFake()), rules.Table{"User": `isroot("$VALUE")`})
	if !errors.Is(err, rules.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
	if !strings.Contains(err.Error(), "field User") {
		t.Fatalf("expected field context in %q", err.Error())
	}
}
