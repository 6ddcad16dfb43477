package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-p4form/pkg/form"
)

// readForm parses path, or stdin when path is "-".
func readForm(stdin io.Reader, path string) (*form.Form, error) {
	if path == "-" {
		return form.ParseReader(stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: open form: %w", err)
	}
	defer file.Close()
	return form.ParseReader(file)
}

// writeOutput writes through fn to path, or to stdout when path is empty or "-".
func writeOutput(stdout io.Writer, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cli: create %s: %w", path, err)
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
