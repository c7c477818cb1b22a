package pgstore

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
)

// timeLayout stores instants in UTC with fixed precision so that jsonb
// string comparison orders them chronologically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// jsonText encodes v as a jsonb literal, normalizing times.
func jsonText(v any) (string, error) {
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalize replaces time values with their stored string form.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, json.Number:
		return x
	case time.Time:
		return x.UTC().Format(timeLayout)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(timeLayout)
	case docstore.Document:
		return normalizeMap(x)
	case map[string]any:
		return normalizeMap(x)
	}
	if list, ok := listValue(v); ok {
		out := make([]any, len(list))
		for i, e := range list {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

// listValue returns v as a list when it is a slice or array other than
// []byte or a string.
func listValue(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// jsonKind is the jsonb_typeof of an ordered operand.
func jsonKind(v any) (string, bool) {
	switch v.(type) {
	case string, time.Time, *time.Time:
		return "string", true
	case bool:
		return "boolean", true
	}
	if _, ok := toFloat(v); ok {
		return "number", true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	f, ok := toFloat(v)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// decodeDocument parses a stored doc. Integral numbers become int64, other
// numbers float64, and strings in the stored time layout time.Time.
func decodeDocument(raw []byte) (docstore.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return docstore.Document(denormalize(m).(map[string]any)), nil
}

func denormalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case string:
		if len(x) == len("2006-01-02T15:04:05.000000Z") {
			if t, err := time.Parse(timeLayout, x); err == nil {
				return t
			}
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = denormalize(e)
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = denormalize(e)
		}
		return x
	}
	return v
}

// project keeps only the listed top-level fields.
func project(d docstore.Document, fields []string) docstore.Document {
	if len(fields) == 0 {
		return d
	}
	out := make(docstore.Document, len(fields))
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}
