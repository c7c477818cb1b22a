package filter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// maxExactFloat is the largest magnitude at which every integer is exactly
// representable as a float64.
const maxExactFloat = 1 << 53

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Cast coerces raw to the semantic type t.
//
// Numbers become int64 when integral and float64 otherwise, so "10" and 10
// cast to the same value. Booleans accept only true/false (as bool or string).
// Dates accept RFC3339, "2006-01-02" or unix seconds and are returned in UTC.
// Strings accept any scalar. Arrays accept a slice or a string split on ","
// and ";", and cast every element.
//
// Failures are queryerr.ErrCastError errors without a field name; use
// CastField to attach one.
func Cast(raw any, t registry.SemanticType) (any, error) {
	return CastField("", raw, t)
}

// CastField is Cast with the field name recorded in the error.
func CastField(field string, raw any, t registry.SemanticType) (any, error) {
	if t.IsArray() {
		elems, ok := splitList(raw)
		if !ok {
			return nil, queryerr.CastError(field, raw, t.String())
		}
		out := make([]any, 0, len(elems))
		for _, e := range elems {
			v, err := CastField(field, e, t.Element())
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	var (
		v  any
		ok bool
	)
	switch t.Kind {
	case registry.KindNumber:
		v, ok = castNumber(raw)
	case registry.KindBoolean:
		v, ok = castBool(raw)
	case registry.KindDate:
		v, ok = castDate(raw)
	case registry.KindString:
		v, ok = castString(raw)
	}
	if !ok {
		return nil, queryerr.CastError(field, raw, t.String())
	}
	return v, nil
}

// CastList casts a set-operator value: a slice or a delimited string, each
// element cast to t (or t's element type for arrays).
func CastList(field string, raw any, t registry.SemanticType) ([]any, error) {
	v, err := CastField(field, raw, registry.Array(t.Element()))
	if err != nil {
		return nil, err
	}
	return v.([]any), nil
}

func castNumber(raw any) (any, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return castUnsigned(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return castUnsigned(v)
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	case json.Number:
		return castNumber(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return normalizeFloat(f)
	default:
		return nil, false
	}
}

func castUnsigned(v uint64) (any, bool) {
	if v > math.MaxInt64 {
		return nil, false
	}
	return int64(v), true
}

func normalizeFloat(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	if f == math.Trunc(f) && math.Abs(f) < maxExactFloat {
		return int64(f), true
	}
	return f, true
}

func castBool(raw any) (any, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return nil, false
}

func castDate(raw any) (any, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), true
		}
		return nil, false
	default:
		n, ok := castNumber(raw)
		if !ok {
			return nil, false
		}
		secs, ok := n.(int64)
		if !ok {
			return nil, false
		}
		return time.Unix(secs, 0).UTC(), true
	}
}

func castString(raw any) (any, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.UTC().Format(time.RFC3339), true
	case json.Number:
		return v.String(), true
	}
	if n, ok := castNumber(raw); ok {
		switch x := n.(type) {
		case int64:
			return strconv.FormatInt(x, 10), true
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), true
		}
	}
	return nil, false
}

// splitList flattens raw into list elements. Strings are split on "," and
// ";" with blanks dropped; other scalars become a one-element list.
func splitList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case string:
		parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	case map[string]any, map[string]string:
		return nil, false
	default:
		return []any{v}, true
	}
}
