package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags an AttributeValue variant.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindDate
	KindBoolean
)

// AttributeValue is the application-level representation of one typed
// attribute value. The four nullable columns on ObjectRecordAttribute
// are only the storage encoding of this union.
type AttributeValue struct {
	Kind    ValueKind
	Text    string
	Number  float64
	Date    time.Time
	Boolean bool
}

// ParseAttributeValue coerces a JSON-decoded payload value into the
// variant declared by the field's data type.
func ParseAttributeValue(dataType string, raw any) (AttributeValue, error) {
	switch dataType {
	case DataTypeText:
		switch v := raw.(type) {
		case string:
			return AttributeValue{Kind: KindText, Text: v}, nil
		case nil:
			return AttributeValue{Kind: KindText}, nil
		default:
			return AttributeValue{Kind: KindText, Text: fmt.Sprintf("%v", v)}, nil
		}

	case DataTypeNumber:
		switch v := raw.(type) {
		case float64:
			return AttributeValue{Kind: KindNumber, Number: v}, nil
		case int:
			return AttributeValue{Kind: KindNumber, Number: float64(v)}, nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return AttributeValue{}, fmt.Errorf("value %q is not a number", v)
			}
			return AttributeValue{Kind: KindNumber, Number: n}, nil
		default:
			return AttributeValue{}, fmt.Errorf("value %v is not a number", raw)
		}

	case DataTypeDate:
		s, ok := raw.(string)
		if !ok {
			return AttributeValue{}, fmt.Errorf("value %v is not a date", raw)
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return AttributeValue{Kind: KindDate, Date: t}, nil
			}
		}
		return AttributeValue{}, fmt.Errorf("value %q is not a date", s)

	case DataTypeBoolean:
		switch v := raw.(type) {
		case bool:
			return AttributeValue{Kind: KindBoolean, Boolean: v}, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return AttributeValue{}, fmt.Errorf("value %q is not a boolean", v)
			}
			return AttributeValue{Kind: KindBoolean, Boolean: b}, nil
		default:
			return AttributeValue{}, fmt.Errorf("value %v is not a boolean", raw)
		}

	default:
		return AttributeValue{}, fmt.Errorf("unknown data type %q", dataType)
	}
}

// Apply writes the variant into its storage column, clearing the others.
func (v AttributeValue) Apply(attr *ObjectRecordAttribute) {
	attr.ValueText = nil
	attr.ValueNumber = nil
	attr.ValueDate = nil
	attr.ValueBoolean = nil
	switch v.Kind {
	case KindText:
		text := v.Text
		attr.ValueText = &text
	case KindNumber:
		number := v.Number
		attr.ValueNumber = &number
	case KindDate:
		date := v.Date
		attr.ValueDate = &date
	case KindBoolean:
		boolean := v.Boolean
		attr.ValueBoolean = &boolean
	}
}

// DecodeAttributeValue reads the populated storage column back into the
// union according to the field's declared data type.
func DecodeAttributeValue(dataType string, attr ObjectRecordAttribute) AttributeValue {
	switch dataType {
	case DataTypeNumber:
		out := AttributeValue{Kind: KindNumber}
		if attr.ValueNumber != nil {
			out.Number = *attr.ValueNumber
		}
		return out
	case DataTypeDate:
		out := AttributeValue{Kind: KindDate}
		if attr.ValueDate != nil {
			out.Date = *attr.ValueDate
		}
		return out
	case DataTypeBoolean:
		out := AttributeValue{Kind: KindBoolean}
		if attr.ValueBoolean != nil {
			out.Boolean = *attr.ValueBoolean
		}
		return out
	default:
		out := AttributeValue{Kind: KindText}
		if attr.ValueText != nil {
			out.Text = *attr.ValueText
		}
		return out
	}
}

// Any renders the variant as a JSON-friendly value.
func (v AttributeValue) Any() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindDate:
		return v.Date.Format(time.RFC3339)
	case KindBoolean:
		return v.Boolean
	default:
		return v.Text
	}
}
