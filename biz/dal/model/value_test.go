package model

import (
	"testing"
	"time"
)

func TestParseAttributeValueCoercions(t *testing.T) {
	t.Run("NumberFromString", func(t *testing.T) {
		v, err := ParseAttributeValue(DataTypeNumber, " 42.5 ")
		if err != nil || v.Number != 42.5 {
			t.Fatalf("got %+v err=%v", v, err)
		}
	})

	t.Run("NumberRejectsGarbage", func(t *testing.T) {
		if _, err := ParseAttributeValue(DataTypeNumber, "abc"); err == nil {
			t.Fatal("expected error for non-numeric string")
		}
	})

	t.Run("DateLayouts", func(t *testing.T) {
		for _, raw := range []string{"2026-08-31", "2026-08-31T10:30:00Z"} {
			v, err := ParseAttributeValue(DataTypeDate, raw)
			if err != nil {
				t.Fatalf("parse %q: %v", raw, err)
			}
			if v.Date.Year() != 2026 || v.Date.Month() != time.August {
				t.Fatalf("parse %q gave %v", raw, v.Date)
			}
		}
	})

	t.Run("DateRejectsNonString", func(t *testing.T) {
		if _, err := ParseAttributeValue(DataTypeDate, 20260831); err == nil {
			t.Fatal("expected error for numeric date")
		}
	})

	t.Run("BooleanFromString", func(t *testing.T) {
		v, err := ParseAttributeValue(DataTypeBoolean, "true")
		if err != nil || !v.Boolean {
			t.Fatalf("got %+v err=%v", v, err)
		}
	})

	t.Run("TextStringifiesScalars", func(t *testing.T) {
		v, err := ParseAttributeValue(DataTypeText, 7.0)
		if err != nil || v.Text != "7" {
			t.Fatalf("got %+v err=%v", v, err)
		}
	})

	t.Run("UnknownDataType", func(t *testing.T) {
		if _, err := ParseAttributeValue("blob", "x"); err == nil {
			t.Fatal("expected error for unknown data type")
		}
	})
}

func TestApplyDecodeRoundTrip(t *testing.T) {
	value, err := ParseAttributeValue(DataTypeNumber, 12.5)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var attr ObjectRecordAttribute
	// stale columns from a prior type must be cleared
	old := "stale"
	attr.ValueText = &old
	value.Apply(&attr)

	if attr.ValueText != nil {
		t.Fatal("Apply left a stale column populated")
	}
	if attr.ValueNumber == nil || *attr.ValueNumber != 12.5 {
		t.Fatalf("number column not written: %+v", attr)
	}

	decoded := DecodeAttributeValue(DataTypeNumber, attr)
	if decoded.Kind != KindNumber || decoded.Any() != 12.5 {
		t.Fatalf("decode mismatch: %+v", decoded)
	}
}

func TestDecodeNullColumnsToZeroValues(t *testing.T) {
	var empty ObjectRecordAttribute
	if got := DecodeAttributeValue(DataTypeText, empty).Any(); got != "" {
		t.Fatalf("null text decoded to %v", got)
	}
	if got := DecodeAttributeValue(DataTypeNumber, empty).Any(); got != 0.0 {
		t.Fatalf("null number decoded to %v", got)
	}
	if got := DecodeAttributeValue(DataTypeBoolean, empty).Any(); got != false {
		t.Fatalf("null boolean decoded to %v", got)
	}
}
