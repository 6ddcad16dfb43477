package p4cli

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type scriptedRunner struct {
	responses map[string]Output
	commands  []string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (Output, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	r.commands = append(r.commands, cmd)
	if out, ok := r.responses[cmd]; ok {
		return out, nil
	}
	return Output{Combined: "unexpected command\n", ExitCode: 1}, nil
}

func TestAdapterUserExists(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{responses: map[string]Output{
		"p4 -p ssl:perforce:1666 -u admin users": {
			Stdout: "bob <bob@example.com> (Bob) accessed 2024/01/02\nkaren <karen@example.com> (Karen) accessed 2024/01/03\n",
		},
	}}
	adapter := New(WithRunner(runner), WithPort("ssl:perforce:1666"), WithUser("admin"))

	ok, err := adapter.UserExists(context.Background(), "karen")
	if err != nil || !ok {
		t.Fatalf("UserExists(karen) = %v, %v", ok, err)
	}
	ok, err = adapter.UserExists(context.Background(), "kar")
	if err != nil || ok {
		t.Fatalf("UserExists(kar) = %v, %v", ok, err)
	}
}

func TestAdapterUserExistsCommandFailure(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{responses: map[string]Output{
		"p4 users": {Combined: "Perforce client error: Connect to server failed\n", ExitCode: 1},
	}}
	ok, err := New(WithRunner(runner)).UserExists(context.Background(), "karen")
	if !errors.Is(err, ErrCommandFailed) || ok {
		t.Fatalf("UserExists = %v, %v; want false, ErrCommandFailed", ok, err)
	}
}

func TestAdapterUserEmail(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{responses: map[string]Output{
		"p4 user -o karen": {Stdout: "User:\tkaren\n\nEmail:\tkaren@example.com\n"},
		"p4 user -o ghost": {Stdout: "User:\tghost\n\nFullName:\tghost\n"},
	}}
	adapter := New(WithRunner(runner))

	email, ok, err := adapter.UserEmail(context.Background(), "karen")
	if err != nil || !ok || email != "karen@example.com" {
		t.Fatalf("UserEmail(karen) = %q, %v, %v", email, ok, err)
	}
	_, ok, err = adapter.UserEmail(context.Background(), "ghost")
	if err != nil || ok {
		t.Fatalf("UserEmail(ghost) = %v, %v; want no email", ok, err)
	}
}

func TestAdapterChangelistExists(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{responses: map[string]Output{
		"p4 -c ws change -o 1": {Stdout: "Change:\t1\n"},
		"p4 -c ws change -o 9": {Combined: "Change 9 unknown.\n", ExitCode: 1},
	}}
	adapter := New(WithRunner(runner), WithClient("ws"))

	if ok, err := adapter.ChangelistExists(context.Background(), "1"); err != nil || !ok {
		t.Fatalf("ChangelistExists(1) = %v, %v", ok, err)
	}
	if ok, err := adapter.ChangelistExists(context.Background(), "9"); err != nil || ok {
		t.Fatalf("ChangelistExists(9) = %v, %v", ok, err)
	}
}

func TestAdapterFileQueries(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{responses: map[string]Output{
		"/opt/p4 fstat //spec/job/job000001.p4s": {
			Combined: "... depotFile //spec/job/job000001.p4s\n... headAction add\n... headRev 1\n",
		},
		"/opt/p4 fstat //spec/job/job000009.p4s": {
			Combined: "//spec/job/job000009.p4s - no such file(s).\n",
			ExitCode: 1,
		},
		"/opt/p4 fstat //depot/main/README": {
			Combined: "... depotFile //depot/main/README\n... headAction add\n",
		},
	}}
	adapter := New(WithRunner(runner), WithBinary("/opt/p4"))
	ctx := context.Background()

	if ok, err := adapter.JobSpecExists(ctx, "job000001"); err != nil || !ok {
		t.Fatalf("JobSpecExists(job000001) = %v, %v", ok, err)
	}
	if ok, err := adapter.JobSpecExists(ctx, "job000009"); err != nil || ok {
		t.Fatalf("JobSpecExists(job000009) = %v, %v", ok, err)
	}
	if n, err := adapter.FileStatusLineCount(ctx, "//depot/main/README"); err != nil || n != 2 {
		t.Fatalf("FileStatusLineCount(README) = %d, %v", n, err)
	}

	want := []string{
		"/opt/p4 fstat //spec/job/job000001.p4s",
		"/opt/p4 fstat //spec/job/job000009.p4s",
		"/opt/p4 fstat //depot/main/README",
	}
	if diff := cmp.Diff(want, runner.commands); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestAdapterRunnerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("exec: \"p4\": executable file not found in $PATH")
	adapter := New(WithRunner(RunnerFunc(func(context.Context, string, ...string) (Output, error) {
		return Output{}, boom
	})))
	ctx := context.Background()

	if _, err := adapter.ChangelistExists(ctx, "1"); !errors.Is(err, boom) {
		t.Fatalf("ChangelistExists error = %v", err)
	}
	if _, err := adapter.FileStatusLineCount(ctx, "//x"); !errors.Is(err, boom) {
		t.Fatalf("FileStatusLineCount error = %v", err)
	}
	if _, _, err := adapter.UserEmail(ctx, "karen"); !errors.Is(err, boom) {
		t.Fatalf("UserEmail error = %v", err)
	}
}

func TestExecRunner(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := execRunner{}.Run(context.Background(), "sh", "-c", "echo one; echo two >&2; exit 3")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", out.ExitCode)
	}
	if out.Stdout != "one\n" {
		t.Fatalf("Stdout = %q, want %q", out.Stdout, "one\n")
	}
	if !strings.Contains(out.Combined, "one\n") || !strings.Contains(out.Combined, "two\n") {
		t.Fatalf("Combined = %q, want both streams", out.Combined)
	}

	if _, err := (execRunner{}).Run(context.Background(), "definitely-not-a-p4-binary"); err == nil {
		t.Fatalf("expected an error for a missing binary")
	}
}
