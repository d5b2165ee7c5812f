package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// Payload carries the caller-supplied attributes for a transition, e.g. a
// rejection reason or a closed amount. Keys follow the JSON field names the
// API accepts.
type Payload map[string]interface{}

// String returns the named field as a string, "" when absent.
func (p Payload) String(name string) string {
	if v, ok := p[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Float returns the named field as a float64 and whether it was present.
// JSON numbers decode as float64; ints are accepted for direct callers.
func (p Payload) Float(name string) (float64, bool) {
	switch v := p[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Time returns the named field as a time.Time and whether it was present.
// Accepts time.Time values or RFC 3339 strings.
func (p Payload) Time(name string) (time.Time, bool) {
	switch v := p[name].(type) {
	case time.Time:
		return v, true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Has reports whether the field is present, regardless of type.
func (p Payload) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// FieldType constrains what a payload field may hold.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldTime   FieldType = "time"
)

// Field describes one payload field a transition requires or accepts.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Validate func(v interface{}) error
}

func nonEmptyString(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func nonNegativeNumber(v interface{}) error {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return fmt.Errorf("must be a number")
	}
	if f < 0 {
		return fmt.Errorf("must be >= 0")
	}
	return nil
}

func validTimestamp(v interface{}) error {
	switch t := v.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := time.Parse(time.RFC3339, t); err != nil {
			return fmt.Errorf("must be an RFC 3339 timestamp")
		}
		return nil
	default:
		return fmt.Errorf("must be a timestamp")
	}
}
