package rules

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a single rule file. Both a flat mapping of field names to
// rules and a document with a top-level "fields" mapping are accepted, in
// JSON or YAML.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS walks fsys and merges every JSON/YAML rule file it finds. A field
// defined in more than one file is an error.
func LoadFS(fsys fs.FS) (Table, error) {
	table := Table{}
	if fsys == nil {
		return table, nil
	}
	origin := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isRuleFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("rules: read %s: %w", path, err)
		}
		parsed, err := Parse(data, path)
		if err != nil {
			return err
		}
		for field, rule := range parsed {
			if prev, exists := origin[field]; exists {
				return fmt.Errorf("rules: field %q defined in both %s and %s", field, prev, path)
			}
			origin[field] = path
			table[field] = rule
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// Parse decodes a rule document. source only labels errors.
func Parse(data []byte, source string) (Table, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("rules: file %s is empty", source)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("rules: parse %s: %w", source, err)
		}
	}

	if nested, ok := raw["fields"].(map[string]any); ok && len(raw) == 1 {
		raw = nested
	}

	table := make(Table, len(raw))
	for key, value := range raw {
		field := strings.TrimSpace(key)
		if field == "" {
			return nil, fmt.Errorf("rules: file %s defines a rule for an empty field name", source)
		}
		switch v := value.(type) {
		case string:
			table[field] = v
		case nil:
			table[field] = ""
		default:
			return nil, fmt.Errorf("rules: file %s field %q: rule must be a string, got %T", source, field, value)
		}
	}
	return table, nil
}

func isRuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
