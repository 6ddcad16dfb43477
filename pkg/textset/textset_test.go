package textset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "whitespace only", input: " \t\n ,, ", want: []string{}},
		{name: "mixed separators", input: "a,b, b\tc", want: []string{"a", "b", "c"}},
		{name: "first occurrence wins", input: "j2 j1\nj2,j3 j1", want: []string{"j2", "j1", "j3"}},
		{name: "leading separators", input: ",, job1", want: []string{"job1"}},
		{name: "carriage return token dropped", input: "a \r b", want: []string{"a", "b"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tc.input)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Extract(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}
