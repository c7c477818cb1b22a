package docstore

import (
	"regexp"

	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/textnorm"
)

// FormatCondition renders one field condition as a native filter fragment.
//
// String equality and the substring operators become folded, escaped,
// case-insensitive patterns; ne on a string negates the exact pattern.
// Arrays under eq must hold exactly the given set. in and nin test membership.
func FormatCondition(fc *filter.FieldCondition) Filter {
	field := fc.Field.Store()

	if fc.Operator.IsSet() {
		op := OpIn
		if fc.Operator == filter.OpNin {
			op = OpNin
		}
		return Filter{field: Cond{op: fc.Value}}
	}

	if fc.Field.Type.IsArray() {
		exact := exactSet(fc.Value)
		if fc.Operator == filter.OpNe {
			return Filter{field: Cond{OpNot: exact}}
		}
		return Filter{field: exact}
	}

	if s, ok := fc.Value.(string); ok {
		switch fc.Operator {
		case filter.OpEq:
			return Filter{field: Cond{OpRegex: stringPattern(s, true, true)}}
		case filter.OpNe:
			return Filter{field: Cond{OpNot: Cond{OpRegex: stringPattern(s, true, true)}}}
		case filter.OpContains:
			return Filter{field: Cond{OpRegex: stringPattern(s, false, false)}}
		case filter.OpStartsWith:
			return Filter{field: Cond{OpRegex: stringPattern(s, true, false)}}
		case filter.OpEndsWith:
			return Filter{field: Cond{OpRegex: stringPattern(s, false, true)}}
		}
	}

	return Filter{field: Cond{comparison(fc.Operator): fc.Value}}
}

func exactSet(v any) Cond {
	list, _ := v.([]any)
	return Cond{OpAll: list, OpSize: len(list)}
}

func stringPattern(s string, anchorStart, anchorEnd bool) Pattern {
	expr := regexp.QuoteMeta(textnorm.Fold(s))
	if anchorStart {
		expr = "^" + expr
	}
	if anchorEnd {
		expr += "$"
	}
	return Pattern{Expr: expr, CaseInsensitive: true, Folded: true}
}

func comparison(op filter.Operator) string {
	switch op {
	case filter.OpNe:
		return OpNe
	case filter.OpGt:
		return OpGt
	case filter.OpGte:
		return OpGte
	case filter.OpLt:
		return OpLt
	case filter.OpLte:
		return OpLte
	default:
		return OpEq
	}
}

// merge adds fragment to dst. Conds on the same field are combined when
// their operators do not overlap; any other collision is kept under $and.
func merge(dst, fragment Filter) {
	for key, val := range fragment {
		existing, ok := dst[key]
		if !ok {
			dst[key] = val
			continue
		}
		if key == KeyAnd {
			dst[KeyAnd] = append(existing.([]Filter), val.([]Filter)...)
			continue
		}
		if a, okA := existing.(Cond); okA {
			if b, okB := val.(Cond); okB && disjoint(a, b) {
				combined := make(Cond, len(a)+len(b))
				for k, v := range a {
					combined[k] = v
				}
				for k, v := range b {
					combined[k] = v
				}
				dst[key] = combined
				continue
			}
		}
		and, _ := dst[KeyAnd].([]Filter)
		dst[KeyAnd] = append(and, Filter{key: val})
	}
}

func disjoint(a, b Cond) bool {
	for k := range b {
		if _, ok := a[k]; ok {
			return false
		}
	}
	return true
}
