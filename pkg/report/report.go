package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Format names accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatHTML = "html"
)

// ErrUnknownFormat is returned by New for unsupported format names.
var ErrUnknownFormat = errors.New("report: unknown format")

// Finding describes one field that failed its rule.
type Finding struct {
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
	Rule  string `json:"rule,omitempty"`
}

// Result collects the outcome of validating one form.
type Result struct {
	File    string    `json:"file"`
	Checked int       `json:"checked"`
	Invalid []Finding `json:"invalid"`
	Err     error     `json:"-"`
}

// Valid reports whether the form passed every rule without errors.
func (r Result) Valid() bool {
	return r.Err == nil && len(r.Invalid) == 0
}

// Message returns the configuration or I/O error text, if any.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Renderer writes results to w.
type Renderer interface {
	Render(w io.Writer, results []Result) error
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(w io.Writer, results []Result) error

// Render delegates to the underlying function.
func (fn RendererFunc) Render(w io.Writer, results []Result) error {
	return fn(w, results)
}

// New returns the renderer registered for format.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return RendererFunc(renderText), nil
	case FormatJSON:
		return RendererFunc(renderJSON), nil
	case FormatHTML:
		return newHTMLRenderer()
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// Formats lists the supported format names.
func Formats() []string {
	out := []string{FormatText, FormatJSON, FormatHTML}
	sort.Strings(out)
	return out
}

// Failed counts results that are not valid.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Valid() {
			n++
		}
	}
	return n
}
