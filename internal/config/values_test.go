package config

import (
	"testing"
)

func TestTaggedValueString(t *testing.T) {
	cases := []struct {
		value TaggedValue
		want  string
	}{
		{IntValue(42), "42"},
		{FloatValue(0.1), "0.1"},
		{FloatValue(64), "64.0"}, // whole floats keep reading as floats
		{BoolValue(true), "True"},
		{BoolValue(false), "False"},
		{StringValue("data.csv"), "data.csv"},
	}
	for _, tc := range cases {
		if got := tc.value.String(); got != tc.want {
			t.Errorf("String(%v) = %q, want %q", tc.value.Interface(), got, tc.want)
		}
	}
}

func TestCoerce(t *testing.T) {
	t.Run("string to int", func(t *testing.T) {
		v, err := StringValue("64").Coerce(KindInt)
		if err != nil {
			t.Fatalf("Coerce failed: %v", err)
		}
		if v.Kind() != KindInt || v.Int() != 64 {
			t.Errorf("got %v (%s), want 64 (int)", v.Interface(), v.Kind())
		}
	})

	t.Run("int to float widens", func(t *testing.T) {
		v, err := IntValue(3).Coerce(KindFloat)
		if err != nil {
			t.Fatalf("Coerce failed: %v", err)
		}
		if v.Kind() != KindFloat || v.Float() != 3.0 {
			t.Errorf("got %v, want 3.0", v.Interface())
		}
	})

	t.Run("float to int truncates", func(t *testing.T) {
		v, err := FloatValue(2.9).Coerce(KindInt)
		if err != nil {
			t.Fatalf("Coerce failed: %v", err)
		}
		if v.Int() != 2 {
			t.Errorf("got %d, want 2", v.Int())
		}
	})

	t.Run("non-numeric string to int fails", func(t *testing.T) {
		if _, err := StringValue("blue").Coerce(KindInt); err == nil {
			t.Error("expected coercion error")
		}
	})

	t.Run("string to bool is case-insensitive", func(t *testing.T) {
		v, err := StringValue("TRUE").Coerce(KindBool)
		if err != nil {
			t.Fatalf("Coerce failed: %v", err)
		}
		if !v.Bool() {
			t.Error("expected true")
		}
		if _, err := StringValue("yes").Coerce(KindBool); err == nil {
			t.Error("expected coercion error for non true/false string")
		}
	})

	t.Run("anything to string", func(t *testing.T) {
		v, err := FloatValue(0.5).Coerce(KindString)
		if err != nil {
			t.Fatalf("Coerce failed: %v", err)
		}
		if v.Str() != "0.5" {
			t.Errorf("got %q, want \"0.5\"", v.Str())
		}
	})
}

func TestFromInterface(t *testing.T) {
	v, err := FromInterface(int64(7))
	if err != nil || v.Kind() != KindInt {
		t.Errorf("int64: got kind %s, err %v", v.Kind(), err)
	}
	v, err = FromInterface(0.25)
	if err != nil || v.Kind() != KindFloat {
		t.Errorf("float64: got kind %s, err %v", v.Kind(), err)
	}
	if _, err := FromInterface([]string{"no"}); err == nil {
		t.Error("expected error for non-scalar")
	}
}
