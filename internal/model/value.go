package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	// KindNumber is a JSON number kept as its literal text because neither
	// int64 nor float64 can hold it without changing its value.
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Value is a JSON-representable column value.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  *Row
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// ParseNumber converts a JSON number literal into an Int, a Float, or, when
// neither holds the literal's exact value, a Number that keeps the text.
func ParseNumber(lit string) (Value, error) {
	if lit == "" || !(lit[0] == '-' || (lit[0] >= '0' && lit[0] <= '9')) || !json.Valid([]byte(lit)) {
		return Value{}, fmt.Errorf("invalid number %q", lit)
	}
	return numberValue(json.Number(lit))
}

// Array returns an array value.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object returns a nested object value.
func Object(r *Row) Value {
	if r == nil {
		r = NewRow()
	}
	return Value{kind: KindObject, obj: r}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer and whether v is an int.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float and whether v is a float.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsNumber returns the literal text and whether v is an exact number.
func (v Value) AsNumber() (string, bool) { return v.s, v.kind == KindNumber }

// AsArray returns the items and whether v is an array.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the nested row and whether v is an object.
func (v Value) AsObject() (*Row, bool) { return v.obj, v.kind == KindObject }

// Equal reports deep equality, including kind.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindNumber:
		return sameDecimal(v.s, o.s)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	}
	return false
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		// JSON has no representation for these.
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("unsupported float value %v", v.f)
		}
		b, err := formatFloat(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindNumber:
		buf.WriteString(v.s)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		b, err := v.obj.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
	default:
		return fmt.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberValue(t)
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		case '{':
			row, err := decodeObject(dec)
			if err != nil {
				return Value{}, err
			}
			return Object(row), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// decodeObject reads fields up to and including the closing brace.
func decodeObject(dec *json.Decoder) (*Row, error) {
	row := NewRow()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		row.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return row, nil
}

// formatFloat writes f the way encoding/json does, with ".0" added to integral
// values so they decode back as floats.
func formatFloat(f float64) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, '.', '0')
	}
	return b, nil
}

func numberValue(n json.Number) (Value, error) {
	lit := n.String()
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Value{}, fmt.Errorf("invalid number %q: %w", lit, err)
	}
	if err == nil {
		if b, ferr := formatFloat(f); ferr == nil && sameDecimal(lit, string(b)) {
			return Float(f), nil
		}
	}
	return Value{kind: KindNumber, s: lit}, nil
}

// sameDecimal reports whether two number literals denote the same decimal value.
func sameDecimal(a, b string) bool {
	an, ad, ae, aok := decimalParts(a)
	bn, bd, be, bok := decimalParts(b)
	return aok && bok && an == bn && ad == bd && ae == be
}

// decimalParts splits a number literal into sign, significant digits without
// leading or trailing zeros, and a base-10 exponent. Zero is reported as
// (false, "0", 0) whatever its sign.
func decimalParts(lit string) (neg bool, digits string, exp int, ok bool) {
	if strings.HasPrefix(lit, "-") {
		neg = true
		lit = lit[1:]
	}
	mantissa := lit
	if i := strings.IndexAny(lit, "eE"); i >= 0 {
		e, err := strconv.Atoi(strings.TrimPrefix(lit[i+1:], "+"))
		if err != nil {
			return false, "", 0, false
		}
		mantissa, exp = lit[:i], e
	}
	intPart, frac, _ := strings.Cut(mantissa, ".")
	digits = intPart + frac
	exp -= len(frac)
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false, "", 0, false
		}
	}

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return false, "0", 0, true
	}
	trimmed := strings.TrimRight(digits, "0")
	exp += len(digits) - len(trimmed)
	return neg, trimmed, exp, true
}

// FromDriver converts a value produced by a database driver into a Value.
func FromDriver(src any) Value {
	switch x := src.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		return fromUint(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case time.Time:
		return String(x.Format(time.RFC3339Nano))
	case [16]byte:
		return String(uuid.UUID(x).String())
	case uuid.UUID:
		return String(x.String())
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromDriver(item)
		}
		return Array(items...)
	case []string:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = String(item)
		}
		return Array(items...)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		row := NewRow()
		for _, k := range keys {
			row.Set(k, FromDriver(x[k]))
		}
		return Object(row)
	case json.Marshaler:
		return fromMarshaler(x)
	case fmt.Stringer:
		return String(x.String())
	default:
		return String(fmt.Sprint(x))
	}
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Value{kind: KindNumber, s: strconv.FormatUint(u, 10)}
	}
	return Int(int64(u))
}

// fromFloat keeps NaN and infinities, which JSON numbers cannot hold, as text.
func fromFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return String(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return Float(f)
}

// fromMarshaler handles driver types such as numerics that know their own JSON form.
func fromMarshaler(m json.Marshaler) Value {
	b, err := m.MarshalJSON()
	if err != nil {
		return String(fmt.Sprint(m))
	}
	var v Value
	if err := v.UnmarshalJSON(b); err != nil {
		return String(string(b))
	}
	return v
}
