package p4

import (
	"bufio"
	"context"
	"strings"
)

// Adapter answers existence and lookup queries against the server of record.
// Errors signal that the query itself failed; callers in this module treat
// them the same as "does not exist".
type Adapter interface {
	UserExists(ctx context.Context, id string) (bool, error)
	UserEmail(ctx context.Context, id string) (string, bool, error)
	ChangelistExists(ctx context.Context, id string) (bool, error)
	JobSpecExists(ctx context.Context, id string) (bool, error)
	// FileStatusLineCount returns the number of output lines produced by a
	// file status query. More than one line is taken to mean the file exists.
	FileStatusLineCount(ctx context.Context, path string) (int, error)
}

// JobSpecPath returns the spec depot path holding the archived form of a job.
func JobSpecPath(id string) string {
	return "//spec/job/" + id + ".p4s"
}

// ExistsByLineCount applies the line-count existence proxy used for file and
// job spec queries: a missing file produces a single diagnostic line.
func ExistsByLineCount(lines int) bool {
	return lines > 1
}

// ParseEmail returns the address from the first "Email:" line of a user
// record. The address is the second whitespace-separated token on that line.
func ParseEmail(record string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(record))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Email:") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) > 1 {
			return parts[1], true
		}
		return "", false
	}
	return "", false
}

// HasUser reports whether a "p4 users" listing contains a line for id. Each
// listing line starts with the user id followed by a space.
func HasUser(listing, id string) bool {
	if id == "" {
		return false
	}
	prefix := id + " "
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), prefix) {
			return true
		}
	}
	return false
}

// CountLines counts newline-terminated lines, plus a trailing partial line.
func CountLines(output string) int {
	if output == "" {
		return 0
	}
	n := strings.Count(output, "\n")
	if !strings.HasSuffix(output, "\n") {
		n++
	}
	return n
}
