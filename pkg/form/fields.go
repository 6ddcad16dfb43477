package form

import "iter"

// Fields is an insertion-ordered map of field names to raw values.
// Overwriting a name keeps its original position.
type Fields struct {
	keys   []string
	values map[string]string
}

func newFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

func (f *Fields) set(name, value string) {
	if _, exists := f.values[name]; !exists {
		f.keys = append(f.keys, name)
	}
	f.values[name] = value
}

func (f *Fields) remove(name string) (string, bool) {
	value, ok := f.values[name]
	if !ok {
		return "", false
	}
	delete(f.values, name)
	for i, key := range f.keys {
		if key == name {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
	return value, true
}

func (f *Fields) clone() *Fields {
	out := &Fields{
		keys:   append([]string(nil), f.keys...),
		values: make(map[string]string, len(f.values)),
	}
	for k, v := range f.values {
		out.values[k] = v
	}
	return out
}

// Get returns the value stored for name.
func (f *Fields) Get(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	value, ok := f.values[name]
	return value, ok
}

// Has reports whether name is present.
func (f *Fields) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the field names in order. The slice is a copy.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// All iterates over the fields in order.
func (f *Fields) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if f == nil {
			return
		}
		for _, key := range f.keys {
			if !yield(key, f.values[key]) {
				return
			}
		}
	}
}

// Map returns an unordered copy of the fields.
func (f *Fields) Map() map[string]string {
	out := make(map[string]string, f.Len())
	for k, v := range f.All() {
		out[k] = v
	}
	return out
}
