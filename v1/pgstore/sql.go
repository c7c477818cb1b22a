package pgstore

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
)

// idKey is the filter key addressing the row id rather than a doc field.
const idKey = "_id"

// foldSQL mirrors textnorm.Fold: diacritics stripped, lower-cased, "&"
// spelled out, whitespace collapsed.
const foldSQL = `btrim(regexp_replace(replace(lower(unaccent(%s)), '&', ' and '), '\s+', ' ', 'g'))`

// fragment is a piece of SQL with its positional "?" arguments.
type fragment struct {
	sql  string
	vars []any
}

func (f fragment) expr() clause.Expr {
	return clause.Expr{SQL: f.sql, Vars: f.vars, WithoutParentheses: true}
}

// sprintf substitutes the SQL of parts into format and concatenates their vars
// in order. Every %s of format must be matched by one part.
func sprintf(format string, parts ...fragment) fragment {
	sqls := make([]any, len(parts))
	var vars []any
	for i, p := range parts {
		sqls[i] = p.sql
		vars = append(vars, p.vars...)
	}
	return fragment{sql: fmt.Sprintf(format, sqls...), vars: vars}
}

func raw(sql string, vars ...any) fragment {
	return fragment{sql: sql, vars: vars}
}

func join(parts []fragment, sep string) fragment {
	if len(parts) == 1 {
		return parts[0]
	}
	out := fragment{}
	sqls := make([]string, len(parts))
	for i, p := range parts {
		sqls[i] = "(" + p.sql + ")"
		out.vars = append(out.vars, p.vars...)
	}
	out.sql = strings.Join(sqls, sep)
	return out
}

// pathLiteral renders a dotted field as a text[] literal for the #> operator.
func pathLiteral(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		p = strings.ReplaceAll(p, `\`, `\\`)
		p = strings.ReplaceAll(p, `"`, `\"`)
		parts[i] = `"` + p + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func docPath(field string) fragment {
	return raw("doc #> ?::text[]", pathLiteral(field))
}

// whereFilter translates a native filter into a boolean SQL expression that
// is never NULL. Keys are visited in sorted order so the output is stable.
func whereFilter(f docstore.Filter) (fragment, error) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []fragment
	for _, key := range keys {
		val := f[key]
		switch key {
		case docstore.KeyAnd, docstore.KeyOr:
			subs := subFilters(val)
			if len(subs) == 0 {
				continue
			}
			frags := make([]fragment, 0, len(subs))
			for _, sub := range subs {
				frag, err := whereFilter(sub)
				if err != nil {
					return fragment{}, err
				}
				frags = append(frags, frag)
			}
			sep := " AND "
			if key == docstore.KeyOr {
				sep = " OR "
			}
			parts = append(parts, join(frags, sep))
		case idKey:
			frag, err := idPredicate(val)
			if err != nil {
				return fragment{}, err
			}
			parts = append(parts, frag)
		default:
			frag, err := valuePredicate(docPath(key), val)
			if err != nil {
				return fragment{}, fmt.Errorf("field %q: %w", key, err)
			}
			parts = append(parts, frag)
		}
	}

	if len(parts) == 0 {
		return raw("TRUE"), nil
	}
	return join(parts, " AND "), nil
}

func subFilters(v any) []docstore.Filter {
	switch list := v.(type) {
	case []docstore.Filter:
		return list
	case []any:
		out := make([]docstore.Filter, 0, len(list))
		for _, item := range list {
			switch m := item.(type) {
			case docstore.Filter:
				out = append(out, m)
			case map[string]any:
				out = append(out, docstore.Filter(m))
			}
		}
		return out
	}
	return nil
}

func asCond(v any) (docstore.Cond, bool) {
	switch c := v.(type) {
	case docstore.Cond:
		return c, true
	case map[string]any:
		if len(c) == 0 {
			return nil, false
		}
		for k := range c {
			if !strings.HasPrefix(k, "$") {
				return nil, false
			}
		}
		return docstore.Cond(c), true
	}
	return nil, false
}

// valuePredicate matches target (a jsonb expression) against an implicit
// equality value or an operator map.
func valuePredicate(target fragment, expected any) (fragment, error) {
	cond, ok := asCond(expected)
	if !ok {
		return eqPredicate(target, expected)
	}

	ops := make([]string, 0, len(cond))
	for op := range cond {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	parts := make([]fragment, 0, len(ops))
	for _, op := range ops {
		frag, err := opPredicate(target, op, cond[op])
		if err != nil {
			return fragment{}, err
		}
		parts = append(parts, frag)
	}
	return join(parts, " AND "), nil
}

func eqPredicate(target fragment, v any) (fragment, error) {
	if v == nil {
		return sprintf("(%s IS NULL OR %s = 'null'::jsonb)", target, target), nil
	}
	body, err := jsonText(v)
	if err != nil {
		return fragment{}, err
	}
	if _, isList := listValue(v); isList {
		return sprintf("COALESCE(%s = %s, false)", target, raw("?::jsonb", body)), nil
	}
	// Containment also matches a scalar inside an array-valued field.
	return sprintf("COALESCE(%s @> %s, false)", target, raw("?::jsonb", body)), nil
}

func opPredicate(target fragment, op string, operand any) (fragment, error) {
	switch op {
	case docstore.OpEq:
		return eqPredicate(target, operand)

	case docstore.OpNe:
		eq, err := eqPredicate(target, operand)
		if err != nil {
			return fragment{}, err
		}
		return sprintf("NOT (%s)", eq), nil

	case docstore.OpGt, docstore.OpGte, docstore.OpLt, docstore.OpLte:
		kind, ok := jsonKind(operand)
		if !ok {
			return fragment{}, fmt.Errorf("operand of %s is not ordered: %T", op, operand)
		}
		body, err := jsonText(operand)
		if err != nil {
			return fragment{}, err
		}
		cmp := map[string]string{
			docstore.OpGt: ">", docstore.OpGte: ">=", docstore.OpLt: "<", docstore.OpLte: "<=",
		}[op]
		return anyElement(target, func(el fragment) fragment {
			return sprintf("jsonb_typeof(%s) = '"+kind+"' AND %s "+cmp+" %s", el, el, raw("?::jsonb", body))
		}), nil

	case docstore.OpIn:
		return inPredicate(target, operand)

	case docstore.OpNin:
		in, err := inPredicate(target, operand)
		if err != nil {
			return fragment{}, err
		}
		return sprintf("NOT (%s)", in), nil

	case docstore.OpAll:
		body, err := jsonText(operand)
		if err != nil {
			return fragment{}, err
		}
		return sprintf("COALESCE(jsonb_typeof(%s) = 'array' AND %s @> %s, false)", target, target, raw("?::jsonb", body)), nil

	case docstore.OpSize:
		n, ok := toInt(operand)
		if !ok {
			return fragment{}, fmt.Errorf("operand of %s must be an integer, got %T", op, operand)
		}
		return sprintf("COALESCE(jsonb_typeof(%s) = 'array' AND jsonb_array_length(%s) = %s, false)", target, target, raw("?", n)), nil

	case docstore.OpRegex:
		p, ok := operand.(docstore.Pattern)
		if !ok {
			return fragment{}, fmt.Errorf("operand of %s must be a pattern, got %T", op, operand)
		}
		match := "~"
		if p.CaseInsensitive {
			match = "~*"
		}
		return anyElement(target, func(el fragment) fragment {
			text := sprintf("%s #>> '{}'", el)
			if p.Folded {
				text = sprintf(foldSQL, text)
			}
			return sprintf("jsonb_typeof(%s) = 'string' AND %s "+match+" %s", el, text, raw("?", p.Expr))
		}), nil

	case docstore.OpNot:
		inner, err := valuePredicate(target, operand)
		if err != nil {
			return fragment{}, err
		}
		return sprintf("NOT (%s)", inner), nil
	}
	return fragment{}, fmt.Errorf("unsupported operator %s", op)
}

func inPredicate(target fragment, operand any) (fragment, error) {
	if _, ok := listValue(operand); !ok {
		return fragment{}, fmt.Errorf("operand of %s must be a list, got %T", docstore.OpIn, operand)
	}
	body, err := jsonText(operand)
	if err != nil {
		return fragment{}, err
	}
	return sprintf("%s IS NOT NULL AND %s", target, anyElement(target, func(el fragment) fragment {
		return sprintf("%s @> jsonb_build_array(%s)", raw("?::jsonb", body), el)
	})), nil
}

// anyElement applies pred to target, or to each of its elements when target
// is an array, and is false when target is missing.
func anyElement(target fragment, pred func(el fragment) fragment) fragment {
	el := raw("el.v")
	return sprintf(
		"COALESCE(CASE WHEN jsonb_typeof(%s) = 'array' THEN EXISTS (SELECT 1 FROM jsonb_array_elements(%s) AS el(v) WHERE %s) ELSE %s END, false)",
		target, target, pred(el), pred(target),
	)
}

// idPredicate compares the row id, rendered as text, with raw identifiers.
func idPredicate(v any) (fragment, error) {
	cond, ok := asCond(v)
	if !ok {
		return raw("id::text = ?", fmt.Sprint(v)), nil
	}

	ops := make([]string, 0, len(cond))
	for op := range cond {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	parts := make([]fragment, 0, len(ops))
	for _, op := range ops {
		operand := cond[op]
		switch op {
		case docstore.OpEq:
			parts = append(parts, raw("id::text = ?", fmt.Sprint(operand)))
		case docstore.OpNe:
			parts = append(parts, raw("id::text <> ?", fmt.Sprint(operand)))
		case docstore.OpIn, docstore.OpNin:
			list, ok := listValue(operand)
			if !ok {
				return fragment{}, fmt.Errorf("operand of %s on %s must be a list", op, idKey)
			}
			if len(list) == 0 {
				if op == docstore.OpIn {
					parts = append(parts, raw("FALSE"))
				}
				continue
			}
			ids := make([]string, len(list))
			for i, x := range list {
				ids[i] = fmt.Sprint(x)
			}
			if op == docstore.OpIn {
				parts = append(parts, raw("id::text IN ?", ids))
			} else {
				parts = append(parts, raw("id::text NOT IN ?", ids))
			}
		default:
			return fragment{}, fmt.Errorf("operator %s is not supported on %s", op, idKey)
		}
	}
	if len(parts) == 0 {
		return raw("TRUE"), nil
	}
	return join(parts, " AND "), nil
}

// orderBy renders the sort fields followed by the row id, so equal keys keep
// insertion order. Missing values sort first ascending and last descending.
func orderBy(fields []docstore.SortField) fragment {
	parts := make([]fragment, 0, len(fields)+1)
	for _, f := range fields {
		dir := "ASC NULLS FIRST"
		if f.Desc {
			dir = "DESC NULLS LAST"
		}
		parts = append(parts, sprintf("%s "+dir, docPath(f.Field)))
	}
	parts = append(parts, raw("id ASC"))

	out := fragment{}
	sqls := make([]string, len(parts))
	for i, p := range parts {
		sqls[i] = p.sql
		out.vars = append(out.vars, p.vars...)
	}
	out.sql = strings.Join(sqls, ", ")
	return out
}
