package form

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-p4form/pkg/rules"
	"github.com/goliatone/go-p4form/pkg/textset"
)

// Reserved field names.
const (
	FieldUserID = "EJPUserID"
	FieldChain  = "EJPChain"
	FieldRevNum = "EJPRevNum"
)

// Form is a parsed job form. It is immutable once returned by Parse.
type Form struct {
	fields *Fields
	userID string
	hasUID bool
	chain  []string
	revNum []string
}

// Parse reads a form from text.
func Parse(text string) *Form {
	p := &parser{fields: newFields()}
	for _, line := range strings.Split(text, "\n") {
		p.line(strings.TrimSuffix(line, "\r"))
	}
	return p.finish()
}

// ParseReader reads a form from r.
func ParseReader(r io.Reader) (*Form, error) {
	p := &parser{fields: newFields()}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		p.line(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("form: read: %w", err)
	}
	return p.finish(), nil
}

type parser struct {
	fields *Fields
	open   bool
	name   string
	value  string
}

func (p *parser) line(line string) {
	if line == "" {
		return
	}
	switch line[0] {
	case '#':
	case '\t', ' ':
		if p.open {
			p.value += "\n" + line
		}
	default:
		p.commit()
		p.open = true
		name, value, found := strings.Cut(line, ":")
		p.name = strings.TrimSpace(name)
		if found {
			p.value = strings.TrimLeft(value, "\t ")
		} else {
			// No colon: the whole line doubles as the value.
			p.value = line
		}
	}
}

func (p *parser) commit() {
	if p.open && strings.TrimSpace(p.value) != "" {
		p.fields.set(p.name, p.value)
	}
	p.open = false
	p.name, p.value = "", ""
}

func (p *parser) finish() *Form {
	p.commit()

	f := &Form{fields: p.fields, chain: []string{}, revNum: []string{}}
	if v, ok := f.fields.remove(FieldUserID); ok {
		f.userID, f.hasUID = v, true
	}
	if v, ok := f.fields.remove(FieldChain); ok {
		f.chain = textset.Extract(v)
	}
	if v, ok := f.fields.remove(FieldRevNum); ok {
		f.revNum = textset.Extract(v)
	}
	return f
}

// Fields returns the ordered field map. Callers must not rely on mutating it.
func (f *Form) Fields() *Fields { return f.fields }

// Field returns a single field value.
func (f *Form) Field(name string) (string, bool) { return f.fields.Get(name) }

// UserID returns the EJPUserID value and whether it was present.
func (f *Form) UserID() (string, bool) { return f.userID, f.hasUID }

// Chain returns the EJPChain tokens.
func (f *Form) Chain() []string { return append([]string{}, f.chain...) }

// RevNum returns the EJPRevNum tokens.
func (f *Form) RevNum() []string { return append([]string{}, f.revNum...) }

// WithField returns a copy of the form with name set to value. Existing
// fields keep their position; new ones are appended. A blank value removes
// the field, mirroring how the parser drops blank fields.
func (f *Form) WithField(name, value string) *Form {
	out := &Form{
		fields: f.fields.clone(),
		userID: f.userID,
		hasUID: f.hasUID,
		chain:  f.Chain(),
		revNum: f.RevNum(),
	}
	if strings.TrimSpace(value) == "" {
		out.fields.remove(name)
		return out
	}
	out.fields.set(name, value)
	return out
}

// Print writes every field as "name: value" followed by a blank line.
func (f *Form) Print(w io.Writer) error {
	for name, value := range f.fields.All() {
		if _, err := fmt.Fprintf(w, "%s: %s\n\n", name, value); err != nil {
			return fmt.Errorf("form: print: %w", err)
		}
	}
	return nil
}

// String returns the Print output.
func (f *Form) String() string {
	var b strings.Builder
	_ = f.Print(&b)
	return b.String()
}

// Validate checks every field against its rule in table and returns the names
// of the fields that fail, in form order. Fields without a rule pass. The
// error is reserved for malformed rules.
func (f *Form) Validate(ctx context.Context, eval rules.Evaluator, table rules.Table) ([]string, error) {
	return f.check(ctx, f.fields.Keys(), eval, table)
}

// ValidateFields is Validate restricted to names, in the order given. Names
// missing from the form are checked against an empty value.
func (f *Form) ValidateFields(ctx context.Context, names []string, eval rules.Evaluator, table rules.Table) ([]string, error) {
	return f.check(ctx, names, eval, table)
}

func (f *Form) check(ctx context.Context, names []string, eval rules.Evaluator, table rules.Table) ([]string, error) {
	invalid := []string{}
	for _, name := range names {
		rule := table.Rule(name)
		if strings.TrimSpace(rule) == "" {
			continue
		}
		value, _ := f.fields.Get(name)
		ok, err := eval.CheckField(ctx, rule, value)
		if err != nil {
			return nil, fmt.Errorf("form: field %s: %w", name, err)
		}
		if !ok {
			invalid = append(invalid, name)
		}
	}
	return invalid, nil
}
