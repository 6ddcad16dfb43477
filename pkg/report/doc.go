// Package report renders validation results for one or more forms.
//
// Three formats are available: "text" prints one "file: field" line per
// invalid field, "json" emits an array of per-form results and "html" renders
// a pongo2 template with field values passed through a strict bluemonday
// policy.
package report
