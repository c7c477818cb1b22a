package filter

import (
	"net/url"
	"sort"
	"strings"
)

// Param is one raw key/value pair of a filter request.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered list of raw parameters. Unlike a map it can carry a
// repeated key, which the normalizer rejects as a duplicate filter.
type Params []Param

// FromMap converts a decoded parameter map (for example a JSON body) into
// Params. Keys are sorted so normalization is deterministic.
func FromMap(m map[string]any) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Params, 0, len(keys))
	for _, k := range keys {
		out = append(out, Param{Key: k, Value: m[k]})
	}
	return out
}

// FromValues converts URL query values into Params.
//
// Bracketed keys are grouped into one operator map per field:
//
//	title[contains]=zelda&title[or]=true  ->  {title: {contains: zelda, or: true}}
//
// A plain key given several times produces several params, and so does a
// field given both plainly and in bracket form. Repeated bracket operators
// are collected into a list.
func FromValues(v url.Values) Params {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		out     Params
		grouped = make(map[string]map[string]any)
		order   []string
	)
	for _, k := range keys {
		vals := v[k]
		field, op, bracketed := splitBracket(k)
		if !bracketed {
			for _, val := range vals {
				out = append(out, Param{Key: k, Value: val})
			}
			continue
		}

		ops, ok := grouped[field]
		if !ok {
			ops = make(map[string]any)
			grouped[field] = ops
			order = append(order, field)
		}
		if len(vals) == 1 {
			ops[op] = vals[0]
		} else {
			list := make([]any, len(vals))
			for i, s := range vals {
				list[i] = s
			}
			ops[op] = list
		}
	}

	for _, field := range order {
		out = append(out, Param{Key: field, Value: grouped[field]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// splitBracket splits "field[op]" into its parts.
func splitBracket(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	op = key[open+1 : len(key)-1]
	if op == "" || strings.ContainsAny(op, "[]") {
		return key, "", false
	}
	return key[:open], op, true
}
