package p4form

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-p4form/pkg/rules"
)

//go:embed defaults/*.yaml
var embeddedDefaults embed.FS

// DefaultRulesFS exposes the built-in rule tables so callers can copy or
// extend them.
func DefaultRulesFS() fs.FS {
	sub, err := fs.Sub(embeddedDefaults, "defaults")
	if err != nil {
		return embeddedDefaults
	}
	return sub
}

// DefaultRules returns the rule table for the stock jobspec fields (Job,
// Status and User).
func DefaultRules() (rules.Table, error) {
	return rules.LoadFS(DefaultRulesFS())
}
