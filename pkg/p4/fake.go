package p4

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnavailable is returned by Fake when it is configured to simulate a
// broken connection to the server.
var ErrUnavailable = errors.New("p4: server unavailable")

// Fake is an in-memory Adapter. The zero value knows about nothing.
type Fake struct {
	Users       map[string]string // id -> email ("" when the record has none)
	Changelists map[string]struct{}
	Jobs        map[string]struct{}
	Files       map[string]struct{}
	Unavailable bool

	mu    sync.Mutex
	calls []string
}

var _ Adapter = (*Fake)(nil)

// NewFake returns an empty fake ready for the With* helpers.
func NewFake() *Fake {
	return &Fake{
		Users:       map[string]string{},
		Changelists: map[string]struct{}{},
		Jobs:        map[string]struct{}{},
		Files:       map[string]struct{}{},
	}
}

// WithUser registers a user record.
func (f *Fake) WithUser(id, email string) *Fake {
	if f.Users == nil {
		f.Users = map[string]string{}
	}
	f.Users[id] = email
	return f
}

// WithChangelists registers existing changelist numbers.
func (f *Fake) WithChangelists(ids ...string) *Fake {
	f.Changelists = addAll(f.Changelists, ids)
	return f
}

// WithJobs registers jobs that have an archived spec.
func (f *Fake) WithJobs(ids ...string) *Fake {
	f.Jobs = addAll(f.Jobs, ids)
	return f
}

// WithFiles registers depot files.
func (f *Fake) WithFiles(paths ...string) *Fake {
	f.Files = addAll(f.Files, paths)
	return f
}

// Calls returns the queries issued so far, formatted as "method:arg".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) UserExists(ctx context.Context, id string) (bool, error) {
	if err := f.begin(ctx, "UserExists", id); err != nil {
		return false, err
	}
	_, ok := f.Users[id]
	return ok, nil
}

func (f *Fake) UserEmail(ctx context.Context, id string) (string, bool, error) {
	if err := f.begin(ctx, "UserEmail", id); err != nil {
		return "", false, err
	}
	email, ok := f.Users[id]
	if !ok || email == "" {
		return "", false, nil
	}
	return email, true, nil
}

func (f *Fake) ChangelistExists(ctx context.Context, id string) (bool, error) {
	if err := f.begin(ctx, "ChangelistExists", id); err != nil {
		return false, err
	}
	_, ok := f.Changelists[id]
	return ok, nil
}

func (f *Fake) JobSpecExists(ctx context.Context, id string) (bool, error) {
	if err := f.begin(ctx, "JobSpecExists", id); err != nil {
		return false, err
	}
	_, ok := f.Jobs[id]
	return ok, nil
}

func (f *Fake) FileStatusLineCount(ctx context.Context, path string) (int, error) {
	if err := f.begin(ctx, "FileStatusLineCount", path); err != nil {
		return 0, err
	}
	if _, ok := f.Files[path]; ok {
		// depotFile, clientFile, headAction...
		return 8, nil
	}
	// "<path> - no such file(s)."
	return 1, nil
}

func (f *Fake) begin(ctx context.Context, method, arg string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method+":"+arg)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Unavailable {
		return ErrUnavailable
	}
	return nil
}

func addAll(set map[string]struct{}, values []string) map[string]struct{} {
	if set == nil {
		set = make(map[string]struct{}, len(values))
	}
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

type fixtureFile struct {
	Users       map[string]string `yaml:"users"`
	Changelists []string          `yaml:"changelists"`
	Jobs        []string          `yaml:"jobs"`
	Files       []string          `yaml:"files"`
}

// LoadFake reads a YAML (or JSON) fixture describing the server contents:
//
//	users:
//	  alice: alice@example.com
//	changelists: ["1", "2"]
//	jobs: [job000001]
//	files: [//depot/main/README]
func LoadFake(data []byte) (*Fake, error) {
	if strings.TrimSpace(string(data)) == "" {
		return NewFake(), nil
	}
	var doc fixtureFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("p4: parse fixture: %w", err)
	}

	fake := NewFake()
	for id, email := range doc.Users {
		fake.WithUser(strings.TrimSpace(id), strings.TrimSpace(email))
	}
	fake.WithChangelists(doc.Changelists...)
	fake.WithJobs(doc.Jobs...)
	fake.WithFiles(doc.Files...)
	return fake, nil
}

// LoadFakeFile reads a fixture from disk.
func LoadFakeFile(path string) (*Fake, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("p4: read fixture %s: %w", path, err)
	}
	return LoadFake(data)
}

// LoadFakeFS reads a fixture from fsys.
func LoadFakeFS(fsys fs.FS, path string) (*Fake, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("p4: read fixture %s: %w", path, err)
	}
	return LoadFake(data)
}
