package domain

import (
	"math"
	"strconv"
	"time"
)

// ValueKind identifies which field of a Value is populated.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindText
	KindNumber
	KindDate
	KindBool
)

// String returns the kind name used in reports.
func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single table cell.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Time time.Time
	Bool bool
}

// Null is the missing-cell value.
var Null = Value{}

// Text builds a text cell.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Number builds a numeric cell. NaN and infinities are stored as Null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null
	}
	return Value{Kind: KindNumber, Num: f}
}

// Date builds a date cell.
func Date(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// Bool builds a boolean cell.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Float returns the numeric payload and whether the cell holds a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Equal compares kind and payload. Dates compare by instant.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindText:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindDate:
		return v.Time.Equal(o.Time)
	case KindBool:
		return v.Bool == o.Bool
	default:
		return true
	}
}

// String renders the cell the way it is written to CSV and spreadsheets.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format(DateLayout)
		}
		return v.Time.Format(DateTimeLayout)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Any returns the payload as a plain Go value, nil for Null.
func (v Value) Any() any {
	switch v.Kind {
	case KindText:
		return v.Str
	case KindNumber:
		return v.Num
	case KindDate:
		return v.Time
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)
