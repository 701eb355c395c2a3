package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the closed set of value kinds an answer or comparison value can hold.
type Kind int

const (
	KindAbsent Kind = iota
	KindBool
	KindInt
	KindDecimal
	KindDate
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged union over the answer kinds. The zero Value is absent,
// which stands for "skipped" or "prefer not to answer".
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	t    time.Time
	s    string
}

func Absent() Value            { return Value{} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Decimal(f float64) Value  { return Value{kind: KindDecimal, f: f} }
func Date(t time.Time) Value   { return Value{kind: KindDate, t: t} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

func (v Value) BoolValue() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) IntValue() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) DecimalValue() (float64, bool) { return v.f, v.kind == KindDecimal }
func (v Value) DateValue() (time.Time, bool)  { return v.t, v.kind == KindDate }
func (v Value) StringValue() (string, bool)   { return v.s, v.kind == KindString }

// Native returns the Go value held by v: bool, int64, float64, time.Time,
// string, or nil when absent.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDecimal:
		return v.f
	case KindDate:
		return v.t
	case KindString:
		return v.s
	default:
		return nil
	}
}

// Text renders the value the way it is shown as default choice text.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindString:
		return v.s
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == KindAbsent {
		return "<absent>"
	}
	return v.Text()
}

// Equal reports whether two values of the same kind are equal. Values of
// different kinds are never comparable and yield ErrTypeMismatch.
func (v Value) Equal(other Value) (bool, error) {
	if v.kind != other.kind {
		return false, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, v.kind, other.kind)
	}
	switch v.kind {
	case KindAbsent:
		return true, nil
	case KindBool:
		return v.b == other.b, nil
	case KindDate:
		return v.t.Equal(other.t), nil
	default:
		c, err := v.Compare(other)
		return c == 0, err
	}
}

// Compare orders two values of the same kind: numeric order, chronological
// order for dates, lexicographic order for strings. Booleans are unordered.
func (v Value) Compare(other Value) (int, error) {
	if v.kind != other.kind {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, v.kind, other.kind)
	}
	switch v.kind {
	case KindInt:
		return cmpOrdered(v.i, other.i), nil
	case KindDecimal:
		return cmpOrdered(v.f, other.f), nil
	case KindString:
		return strings.Compare(v.s, other.s), nil
	case KindDate:
		return v.t.Compare(other.t), nil
	default:
		return 0, fmt.Errorf("%w: %s values are unordered", ErrInvalidConfiguration, v.kind)
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MarshalJSON encodes dates as RFC 3339 strings and absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindDate {
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	}
	return json.Marshal(v.Native())
}

// EncodeWithPattern encodes v like MarshalJSON, except that dates are
// formatted with the given Unicode date pattern when one is set.
func (v Value) EncodeWithPattern(pattern string) ([]byte, error) {
	if v.kind == KindDate && pattern != "" {
		return json.Marshal(FormatDate(v.t, pattern))
	}
	return v.MarshalJSON()
}

// DecodeValue decodes raw JSON as a value of the wanted kind. A JSON null
// decodes to an absent value regardless of kind. Date strings are parsed with
// pattern when one is given, otherwise as ISO 8601.
func DecodeValue(raw json.RawMessage, want Kind, pattern string) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var native any
	if err := dec.Decode(&native); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if native == nil {
		return Absent(), nil
	}

	switch want {
	case KindBool:
		if b, ok := native.(bool); ok {
			return Bool(b), nil
		}
	case KindInt:
		if n, ok := native.(json.Number); ok {
			i, err := strconv.ParseInt(n.String(), 10, 64)
			if err == nil {
				return Int(i), nil
			}
			// Accept exponent forms such as 1e3 as long as they are integral.
			f, ferr := n.Float64()
			if ferr == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
				return Int(int64(f)), nil
			}
			return Value{}, fmt.Errorf("%w: %s is not an integer", ErrTypeMismatch, n)
		}
	case KindDecimal:
		if n, ok := native.(json.Number); ok {
			f, err := n.Float64()
			if err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
			return Decimal(f), nil
		}
	case KindDate:
		if s, ok := native.(string); ok {
			t, err := ParseDate(s, pattern)
			if err != nil {
				return Value{}, err
			}
			return Date(t), nil
		}
	case KindString:
		if s, ok := native.(string); ok {
			return String(s), nil
		}
	}
	return Value{}, fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, want, describeJSON(native))
}

// ParseValue parses a literal (for example a command line argument) as a
// value of the wanted kind. An empty literal is absent.
func ParseValue(text string, want Kind, pattern string) (Value, error) {
	if text == "" {
		return Absent(), nil
	}
	switch want {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidFormat, text)
		}
		return Bool(b), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidFormat, text)
		}
		return Int(i), nil
	case KindDecimal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a decimal", ErrInvalidFormat, text)
		}
		return Decimal(f), nil
	case KindDate:
		t, err := ParseDate(text, pattern)
		if err != nil {
			return Value{}, err
		}
		return Date(t), nil
	case KindString:
		return String(text), nil
	default:
		return Absent(), nil
	}
}

func describeJSON(native any) string {
	switch native.(type) {
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", native)
	}
}
