package report

import (
	"encoding/json"
	"fmt"
	"io"
)

func renderText(w io.Writer, results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: error: %v\n", r.File, r.Err); err != nil {
				return fmt.Errorf("report: write text: %w", err)
			}
			continue
		}
		for _, f := range r.Invalid {
			if _, err := fmt.Fprintf(w, "%s: %s\n", r.File, f.Field); err != nil {
				return fmt.Errorf("report: write text: %w", err)
			}
		}
	}
	return nil
}

type jsonResult struct {
	File    string    `json:"file"`
	Valid   bool      `json:"valid"`
	Checked int       `json:"checked"`
	Invalid []Finding `json:"invalid"`
	Error   string    `json:"error,omitempty"`
}

func renderJSON(w io.Writer, results []Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		invalid := r.Invalid
		if invalid == nil {
			invalid = []Finding{}
		}
		out = append(out, jsonResult{
			File:    r.File,
			Valid:   r.Valid(),
			Checked: r.Checked,
			Invalid: invalid,
			Error:   r.Message(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("report: write json: %w", err)
	}
	return nil
}
