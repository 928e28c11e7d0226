package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single named column value.
type Field struct {
	Name  string
	Value Value
}

// Row is an ordered mapping from column name to value.
// Field order is the order in which columns were added, which for rows
// read from the store is the store's column order.
type Row struct {
	fields []Field
	index  map[string]int
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{index: make(map[string]int)}
}

// RowOf builds a row from alternating name/value pairs.
// It panics on an odd argument count or a non-string name; intended for tests and literals.
func RowOf(pairs ...any) *Row {
	if len(pairs)%2 != 0 {
		panic("model.RowOf: odd number of arguments")
	}
	row := NewRow()
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("model.RowOf: field name at %d is %T, not string", i, pairs[i]))
		}
		row.Set(name, FromDriver(pairs[i+1]))
	}
	return row
}

// Set assigns a value to a column. An existing column keeps its position.
func (r *Row) Set(name string, v Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = v
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

// Get returns the value of a column and whether it exists.
func (r *Row) Get(name string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Len returns the number of columns.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Columns returns the column names in order.
func (r *Row) Columns() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the fields in order.
func (r *Row) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Equal reports whether both rows hold the same fields in the same order.
func (r *Row) Equal(o *Row) bool {
	if r.Len() != o.Len() {
		return false
	}
	for i := 0; i < r.Len(); i++ {
		a, b := r.fields[i], o.fields[i]
		if a.Name != b.Name || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the row as a JSON object with keys in column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := f.Value.encode(&buf); err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping document key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object, got %v", tok)
	}
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}
