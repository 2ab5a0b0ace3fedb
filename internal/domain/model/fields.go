package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// View selects which consumers see a field.
type View uint8

const (
	// ViewInsert marks columns written on insert.
	ViewInsert View = 1 << iota
	// ViewAlert marks fields included in alert payloads.
	ViewAlert
	// ViewLog marks fields included in structured log lines.
	ViewLog
)

// Field maps one struct field to its column name and the views it belongs to.
// Persistence and serialization walk these tables instead of struct tags.
type Field[T any] struct {
	Name   string
	Column string
	Views  View
	Get    func(*T) any
}

// FieldsFor returns the fields visible in view, preserving table order.
func FieldsFor[T any](fields []Field[T], view View) []Field[T] {
	out := make([]Field[T], 0, len(fields))
	for _, f := range fields {
		if f.Views&view != 0 {
			out = append(out, f)
		}
	}
	return out
}

// Columns returns the column names of fields.
func Columns[T any](fields []Field[T]) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}

// Serialize renders the fields of v visible in view as strings, keyed by
// field name. Absent nullable values render as "".
func Serialize[T any](fields []Field[T], v *T, view View) map[string]string {
	out := make(map[string]string)
	for _, f := range fields {
		if f.Views&view == 0 {
			continue
		}
		out[f.Name] = stringify(f.Get(v))
	}
	return out
}

// Attrs renders the fields of v visible in view as alternating key/value
// pairs suitable for slog.
func Attrs[T any](fields []Field[T], v *T, view View) []any {
	attrs := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		if f.Views&view == 0 {
			continue
		}
		attrs = append(attrs, f.Name, stringify(f.Get(v)))
	}
	return attrs
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *int64:
		if x == nil {
			return ""
		}
		return strconv.FormatInt(*x, 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.String()
	case NullAmount:
		if !x.Valid {
			return ""
		}
		return x.Amount.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
