package testsupport

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-p4form/pkg/form"
	"github.com/goliatone/go-p4form/pkg/p4"
	"github.com/goliatone/go-p4form/pkg/rules"
)

// LoadForm parses a form fixture. Testing helpers fail the test on error to
// keep table-driven tests concise.
func LoadForm(t *testing.T, path string) *form.Form {
	t.Helper()

	f, err := LoadFormFromPath(path)
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	return f
}

// LoadFormFromPath returns a parsed form without requiring testing.T.
func LoadFormFromPath(path string) (*form.Form, error) {
	if path == "" {
		return nil, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read form: %w", err)
	}
	return form.Parse(string(data)), nil
}

// LoadRules reads a rule table fixture.
func LoadRules(t *testing.T, path string) rules.Table {
	t.Helper()

	table, err := rules.LoadFile(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	return table
}

// LoadServer reads a fake server fixture.
func LoadServer(t *testing.T, path string) *p4.Fake {
	t.Helper()

	fake, err := p4.LoadFakeFile(path)
	if err != nil {
		t.Fatalf("load server fixture: %v", err)
	}
	return fake
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// PrintForm renders f with Print, failing the test on error.
func PrintForm(t *testing.T, f *form.Form) string {
	t.Helper()

	var buf bytes.Buffer
	if err := f.Print(&buf); err != nil {
		t.Fatalf("print form: %v", err)
	}
	return buf.String()
}

