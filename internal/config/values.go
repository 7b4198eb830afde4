package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the scalar type of an extracted or overridden value.
// The set is closed: every value paramit carries end-to-end is one of these,
// so type-preserving rewrites reduce to a tag comparison.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

// String returns the Python-facing name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "str"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TaggedValue is a scalar with a runtime kind tag. The tag is preserved
// through extraction, serialization, and injection so a rewrite never
// silently changes a value's declared type.
type TaggedValue struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// IntValue wraps an integer.
func IntValue(v int64) TaggedValue { return TaggedValue{kind: KindInt, i: v} }

// FloatValue wraps a float.
func FloatValue(v float64) TaggedValue { return TaggedValue{kind: KindFloat, f: v} }

// BoolValue wraps a bool.
func BoolValue(v bool) TaggedValue { return TaggedValue{kind: KindBool, b: v} }

// StringValue wraps a string.
func StringValue(v string) TaggedValue { return TaggedValue{kind: KindString, s: v} }

// Kind returns the value's tag.
func (v TaggedValue) Kind() Kind { return v.kind }

// Int returns the integer payload. Valid only for KindInt.
func (v TaggedValue) Int() int64 { return v.i }

// Float returns the float payload. Valid only for KindFloat.
func (v TaggedValue) Float() float64 { return v.f }

// Bool returns the bool payload. Valid only for KindBool.
func (v TaggedValue) Bool() bool { return v.b }

// Str returns the string payload. Valid only for KindString.
func (v TaggedValue) Str() string { return v.s }

// Interface returns the payload as a plain Go value for TOML encoding.
func (v TaggedValue) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return v.s
	}
}

// String renders the value the way it would appear in Python source.
func (v TaggedValue) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return v.s
	}
}

// FromInterface converts a TOML-decoded scalar back into a TaggedValue.
// BurntSushi/toml yields int64, float64, bool, and string for leaves.
func FromInterface(raw interface{}) (TaggedValue, error) {
	switch v := raw.(type) {
	case int64:
		return IntValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case float64:
		return FloatValue(v), nil
	case bool:
		return BoolValue(v), nil
	case string:
		return StringValue(v), nil
	default:
		return TaggedValue{}, fmt.Errorf("unsupported scalar type %T", raw)
	}
}

// Coerce converts the value to the target kind, mirroring Python's
// type constructors: int(x), float(x), bool(x), str(x). Returns an
// error when the conversion would raise in Python.
func (v TaggedValue) Coerce(target Kind) (TaggedValue, error) {
	if v.kind == target {
		return v, nil
	}
	switch target {
	case KindInt:
		switch v.kind {
		case KindFloat:
			return IntValue(int64(v.f)), nil
		case KindBool:
			if v.b {
				return IntValue(1), nil
			}
			return IntValue(0), nil
		case KindString:
			n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
			if err != nil {
				return TaggedValue{}, fmt.Errorf("cannot convert %q to int", v.s)
			}
			return IntValue(n), nil
		}
	case KindFloat:
		switch v.kind {
		case KindInt:
			return FloatValue(float64(v.i)), nil
		case KindBool:
			if v.b {
				return FloatValue(1), nil
			}
			return FloatValue(0), nil
		case KindString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
			if err != nil {
				return TaggedValue{}, fmt.Errorf("cannot convert %q to float", v.s)
			}
			return FloatValue(f), nil
		}
	case KindBool:
		switch v.kind {
		case KindInt:
			return BoolValue(v.i != 0), nil
		case KindFloat:
			return BoolValue(v.f != 0), nil
		case KindString:
			switch strings.ToLower(strings.TrimSpace(v.s)) {
			case "true":
				return BoolValue(true), nil
			case "false":
				return BoolValue(false), nil
			}
			return TaggedValue{}, fmt.Errorf("cannot convert %q to bool", v.s)
		}
	case KindString:
		return StringValue(v.String()), nil
	}
	return TaggedValue{}, fmt.Errorf("cannot convert %s to %s", v.kind, target)
}

// formatFloat renders a float so it still reads as a float literal:
// whole values keep a trailing ".0" the way Python's repr does.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
