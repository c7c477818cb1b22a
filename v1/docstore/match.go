package docstore

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Aleph-Alpha/querykit/v1/textnorm"
)

// Matches reports whether doc satisfies the native filter f. Array-valued
// document fields match a scalar condition when any element does.
func Matches(doc Document, f Filter) bool {
	for key, val := range f {
		switch key {
		case KeyAnd:
			for _, sub := range subFilters(val) {
				if !Matches(doc, sub) {
					return false
				}
			}
		case KeyOr:
			subs := subFilters(val)
			if len(subs) == 0 {
				continue
			}
			matched := false
			for _, sub := range subs {
				if Matches(doc, sub) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		default:
			actual, exists := doc.Get(key)
			if !matchValue(actual, exists, val) {
				return false
			}
		}
	}
	return true
}

func subFilters(v any) []Filter {
	switch list := v.(type) {
	case []Filter:
		return list
	case []any:
		out := make([]Filter, 0, len(list))
		for _, item := range list {
			switch m := item.(type) {
			case Filter:
				out = append(out, m)
			case map[string]any:
				out = append(out, Filter(m))
			}
		}
		return out
	}
	return nil
}

func matchValue(actual any, exists bool, expected any) bool {
	var cond Cond
	switch c := expected.(type) {
	case Cond:
		cond = c
	case map[string]any:
		if isOperatorMap(c) {
			cond = Cond(c)
		}
	}
	if cond == nil {
		return matchEq(actual, exists, expected)
	}
	for op, operand := range cond {
		if !matchOp(actual, exists, op, operand) {
			return false
		}
	}
	return true
}

func isOperatorMap(m map[string]any) bool {
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return len(m) > 0
}

func matchOp(actual any, exists bool, op string, operand any) bool {
	switch op {
	case OpEq:
		return matchEq(actual, exists, operand)
	case OpNe:
		return !matchEq(actual, exists, operand)
	case OpGt, OpGte, OpLt, OpLte:
		if !exists {
			return false
		}
		return anyElement(actual, func(v any) bool {
			c, ok := compareValues(v, operand)
			if !ok {
				return false
			}
			switch op {
			case OpGt:
				return c > 0
			case OpGte:
				return c >= 0
			case OpLt:
				return c < 0
			default:
				return c <= 0
			}
		})
	case OpIn:
		return exists && matchIn(actual, operand)
	case OpNin:
		return !exists || !matchIn(actual, operand)
	case OpAll:
		list, ok := asList(actual)
		if !ok {
			return false
		}
		want, _ := asList(operand)
		for _, w := range want {
			if !containsValue(list, w) {
				return false
			}
		}
		return true
	case OpSize:
		list, ok := asList(actual)
		if !ok {
			return false
		}
		n, ok := toFloat(operand)
		return ok && float64(len(list)) == n
	case OpRegex:
		p, ok := operand.(Pattern)
		if !ok || !exists {
			return false
		}
		re := compilePattern(p)
		if re == nil {
			return false
		}
		return anyElement(actual, func(v any) bool {
			s, ok := v.(string)
			if !ok {
				return false
			}
			if p.Folded {
				s = textnorm.Fold(s)
			}
			return re.MatchString(s)
		})
	case OpNot:
		return !matchValue(actual, exists, operand)
	}
	return false
}

func matchEq(actual any, exists bool, expected any) bool {
	if !exists {
		return expected == nil
	}
	if want, ok := asList(expected); ok {
		have, ok := asList(actual)
		if !ok || len(have) != len(want) {
			return false
		}
		for i := range have {
			if !valuesEqual(have[i], want[i]) {
				return false
			}
		}
		return true
	}
	return anyElement(actual, func(v any) bool { return valuesEqual(v, expected) })
}

func matchIn(actual any, operand any) bool {
	list, ok := asList(operand)
	if !ok {
		return false
	}
	return anyElement(actual, func(v any) bool { return containsValue(list, v) })
}

// anyElement applies fn to actual, or to each of its elements when it is a list.
func anyElement(actual any, fn func(any) bool) bool {
	if list, ok := asList(actual); ok {
		for _, v := range list {
			if fn(v) {
				return true
			}
		}
		return false
	}
	return fn(actual)
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if valuesEqual(item, v) {
			return true
		}
	}
	return false
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []any:
		return l, true
	case string, []byte:
		return nil, false
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

func valuesEqual(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders numbers, times, strings and booleans. ok is false
// for values of different or unordered kinds.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return cmpOrdered(fa, fb), true
	}
	if ta, ok := toTime(a); ok {
		tb, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func cmpOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

var patternCache sync.Map

func compilePattern(p Pattern) *regexp.Regexp {
	expr := p.Expr
	if p.CaseInsensitive {
		expr = "(?i)" + expr
	}
	if re, ok := patternCache.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	patternCache.Store(expr, re)
	return re
}
