package sexp

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Write serializes a tree to its single-line form.
//
// Lists are written as space-joined children in parentheses, strings are
// always quoted, symbols are written bare and numbers are rounded to ten
// decimal places with trailing zeros dropped. A nil node writes as "".
func Write(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

// WriteKeyed wraps the serialized node as (key value).
func WriteKeyed(key string, n Node) string {
	return "(" + key + " " + Write(n) + ")"
}

func writeNode(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case nil:
		sb.WriteString(`""`)
	case List:
		sb.WriteByte('(')
		for i, child := range v {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeNode(sb, child)
		}
		sb.WriteByte(')')
	case String:
		sb.WriteString(quote(string(v)))
	case Symbol:
		if v == "" {
			sb.WriteString(`""`)
			return
		}
		sb.WriteString(string(v))
	case Number:
		sb.WriteString(FormatNumber(float64(v)))
	default:
		sb.WriteString(quote(n.String()))
	}
}

// FormatNumber renders v rounded to ten decimal places without trailing
// zeros or a trailing decimal point.
func FormatNumber(v float64) string {
	r := math.Round(v*1e10) / 1e10
	if math.IsInf(r, 0) || math.IsNaN(r) {
		// Too large to round at this precision.
		r = v
	}
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// Item renders a plain Go value as S-expression text, optionally wrapped as
// (key value). Strings are quoted only when they contain whitespace,
// parentheses or a quote; nil and "" render as "". Slices render their
// elements space-joined, maps render as sorted (key value) pairs.
func Item(v any, key string) string {
	val := itemText(v)
	if key == "" {
		return val
	}
	return "(" + key + " " + val + ")"
}

func itemText(v any) string {
	switch t := v.(type) {
	case nil:
		return `""`
	case Node:
		return Write(t)
	case string:
		if t == "" {
			return `""`
		}
		if needsQuoting(t) {
			return quote(t)
		}
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float32:
		return FormatNumber(float64(t))
	case float64:
		return FormatNumber(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case []string:
		parts := make([]string, len(t))
		for i, s := range t {
			parts[i] = itemText(s)
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = itemText(e)
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = Item(t[k], k)
		}
		return strings.Join(parts, " ")
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = itemText(rv.Index(i).Interface())
		}
		return strings.Join(parts, " ")
	}
	return itemText(fmt.Sprint(v))
}
