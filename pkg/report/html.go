package report

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html
var templateFS embed.FS

const htmlTemplate = "templates/report.html"

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy

	filterOnce sync.Once
	filterErr  error
)

type htmlRenderer struct {
	tmpl *pongo2.Template
}

func newHTMLRenderer() (*htmlRenderer, error) {
	filterOnce.Do(func() {
		if pongo2.FilterExists("sanitize") {
			return
		}
		filterErr = pongo2.RegisterFilter("sanitize", filterSanitize)
	})
	if filterErr != nil {
		return nil, fmt.Errorf("report: register sanitize filter: %w", filterErr)
	}

	set := pongo2.NewSet("p4form-report", pongo2.NewFSLoader(templateFS))
	tmpl, err := set.FromFile(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("report: load template %q: %w", htmlTemplate, err)
	}
	return &htmlRenderer{tmpl: tmpl}, nil
}

func (h *htmlRenderer) Render(w io.Writer, results []Result) error {
	rows := make([]map[string]any, 0, len(results))
	for _, r := range results {
		findings := make([]map[string]any, 0, len(r.Invalid))
		for _, f := range r.Invalid {
			findings = append(findings, map[string]any{
				"field": f.Field,
				"value": f.Value,
				"rule":  f.Rule,
			})
		}
		rows = append(rows, map[string]any{
			"file":     r.File,
			"valid":    r.Valid(),
			"checked":  r.Checked,
			"error":    r.Message(),
			"findings": findings,
		})
	}

	ctx := pongo2.Context{
		"results": rows,
		"total":   len(results),
		"failed":  Failed(results),
	}
	if err := h.tmpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("report: execute template: %w", err)
	}
	return nil
}

// Sanitize strips all markup from a field value.
func Sanitize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return sanitizer().Sanitize(raw)
}

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// The sanitized output is already entity-escaped, so it is marked safe to keep
// pongo2's autoescape from encoding it twice.
func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsSafeValue(Sanitize(in.String())), nil
}
