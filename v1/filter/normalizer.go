package filter

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
	"github.com/Aleph-Alpha/querykit/v1/textnorm"
)

// Normalizer validates raw parameters against the registry and turns them
// into a typed Request. It holds no per-request state and is safe for
// concurrent use.
type Normalizer struct {
	registry *registry.Registry
	cfg      Config
}

// NewNormalizer creates a Normalizer over reg.
func NewNormalizer(reg *registry.Registry, cfg Config) *Normalizer {
	return &Normalizer{registry: reg, cfg: cfg}
}

// Registry returns the registry the normalizer validates against.
func (n *Normalizer) Registry() *registry.Registry {
	return n.registry
}

// Normalize parses params into a Request against entity.
//
// Plain keys filter fields of the entity, dotted keys ("user.username")
// filter through a declared relation, limit/offset/sort build the Paging,
// and the internal ID key is kept raw. Errors are queryerr client errors:
// ErrUnknownEntity, ErrInvalidField, ErrDuplicateFilter or ErrCastError.
func (n *Normalizer) Normalize(entity string, params Params) (*Request, error) {
	desc, err := n.registry.Describe(entity)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Entity: desc,
		Paging: Paging{Limit: n.cfg.defaultLimit()},
	}

	var (
		direct    []Node
		ors       []Node
		relations []*RelationalCondition
		byRel     = make(map[string]*RelationalCondition)
		seen      = make(map[string]struct{}, len(params))
		lookup    *LookupKey
	)

	for _, p := range params {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			return nil, queryerr.InvalidField(entity, p.Key, "empty key")
		}
		if _, dup := seen[key]; dup {
			return nil, queryerr.DuplicateFilter(entity, key)
		}
		seen[key] = struct{}{}

		switch key {
		case KeyLimit:
			if req.Paging.Limit, err = n.parseLimit(entity, p.Value); err != nil {
				return nil, err
			}
			continue
		case KeyOffset:
			if req.Paging.Offset, err = parseOffset(entity, p.Value); err != nil {
				return nil, err
			}
			continue
		case KeySort:
			if req.Paging.Sort, err = parseSort(desc, p.Value); err != nil {
				return nil, err
			}
			continue
		case desc.InternalIDField:
			req.RawID = &RawID{Value: p.Value}
			req.FilterKeys = append(req.FilterKeys, key)
			if isScalar(p.Value) {
				lookup = &LookupKey{Field: key, Value: p.Value, Internal: true}
			}
			continue
		}

		req.FilterKeys = append(req.FilterKeys, key)

		shape, err := resolveShape(entity, key, p.Value)
		if err != nil {
			return nil, err
		}
		_, scalar := shape.(ScalarFilter)
		orFlag := false
		if m, ok := shape.(OperatorMapFilter); ok {
			orFlag = m.Or
		}

		relName, fieldName, dotted := strings.Cut(key, ".")
		if !dotted {
			field, ok := desc.Field(key)
			if !ok {
				return nil, queryerr.InvalidField(entity, key, "not declared")
			}
			conds, err := conditions(entity, field, shape)
			if err != nil {
				return nil, err
			}
			if orFlag {
				ors = append(ors, disjunct(conds))
			} else {
				direct = append(direct, conds...)
			}
			if key == desc.IdentityField && scalar {
				lookup = &LookupKey{Field: key, Value: conds[0].(*FieldCondition).Value}
			}
			continue
		}

		rel, ok := desc.Relation(relName)
		if !ok {
			return nil, queryerr.InvalidField(entity, key, fmt.Sprintf("unknown relation %q", relName))
		}
		target, err := n.registry.Describe(rel.Entity)
		if err != nil {
			return nil, queryerr.InvalidField(entity, key, err.Error())
		}
		field, ok := target.Field(fieldName)
		if !ok {
			return nil, queryerr.InvalidField(target.Name, fieldName, "not declared")
		}
		conds, err := conditions(target.Name, field, shape)
		if err != nil {
			return nil, err
		}

		if orFlag {
			ors = append(ors, &RelationalCondition{
				Relation:   relName,
				Target:     rel.Entity,
				ForeignKey: rel.ForeignKey,
				Inner:      &Composite{Mode: And, Children: conds},
				Field:      fieldName,
				Or:         true,
			})
			continue
		}

		group, ok := byRel[relName]
		if !ok {
			group = &RelationalCondition{
				Relation:   relName,
				Target:     rel.Entity,
				ForeignKey: rel.ForeignKey,
				Inner:      &Composite{Mode: And},
			}
			byRel[relName] = group
			relations = append(relations, group)
		}
		group.Inner.Children = append(group.Inner.Children, conds...)
	}

	root := &Composite{Mode: And, Children: direct}
	for _, r := range relations {
		root.Children = append(root.Children, r)
	}
	if len(ors) > 0 {
		root.Children = append(root.Children, &Composite{Mode: Or, Children: ors})
	}
	req.Expression = root

	if len(req.FilterKeys) == 1 && lookup != nil {
		req.lookup = lookup
	}
	return req, nil
}

// disjunct wraps the conditions of one OR-flagged field into a single entry.
func disjunct(conds []Node) Node {
	if len(conds) == 1 {
		return conds[0]
	}
	return &Composite{Mode: And, Children: conds}
}

// resolveShape decides once whether raw is a scalar or an operator map.
func resolveShape(entity, key string, raw any) (Value, error) {
	var m map[string]any
	switch v := raw.(type) {
	case map[string]any:
		m = v
	case map[string]string:
		m = make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
	default:
		return ScalarFilter{Raw: raw}, nil
	}

	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	var out OperatorMapFilter
	for _, name := range names {
		if name == OrMarker {
			out.Or = truthy(m[name])
			continue
		}
		op, ok := ParseOperator(name)
		if !ok {
			return nil, queryerr.InvalidField(entity, key, fmt.Sprintf("unknown operator %q", name))
		}
		out.Entries = append(out.Entries, OperatorValue{Operator: op, Raw: m[name]})
	}
	if len(out.Entries) == 0 {
		return nil, queryerr.InvalidField(entity, key, "no operator given")
	}
	return out, nil
}

// isScalar reports whether a raw value is neither a map nor a list.
func isScalar(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return false
	}
	return true
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "1"
	}
	if n, ok := castNumber(v); ok {
		return n != int64(0) && n != float64(0)
	}
	return false
}

// conditions builds the typed conditions of one field.
func conditions(entity string, field registry.FieldDescriptor, shape Value) ([]Node, error) {
	switch s := shape.(type) {
	case ScalarFilter:
		v, err := castOperand(field, OpEq, s.Raw)
		if err != nil {
			return nil, err
		}
		return []Node{&FieldCondition{Field: field, Operator: OpEq, Value: v}}, nil

	case OperatorMapFilter:
		allowed := allowedOperators(field.Type)
		out := make([]Node, 0, len(s.Entries))
		for _, e := range s.Entries {
			if _, ok := allowed[e.Operator]; !ok {
				return nil, queryerr.InvalidField(entity, field.Name,
					fmt.Sprintf("operator %q is not supported on %s", e.Operator, field.Type))
			}
			v, err := castOperand(field, e.Operator, e.Raw)
			if err != nil {
				return nil, err
			}
			out = append(out, &FieldCondition{Field: field, Operator: e.Operator, Value: v, Or: s.Or})
		}
		return out, nil
	}
	return nil, queryerr.InvalidField(entity, field.Name, "unrecognized value")
}

func castOperand(field registry.FieldDescriptor, op Operator, raw any) (any, error) {
	switch {
	case op.IsSet():
		return CastList(field.Name, raw, field.Type)
	case op.IsPattern():
		v, err := CastField(field.Name, raw, registry.String)
		if err != nil {
			return nil, err
		}
		// A pattern that folds to nothing would match every value.
		if textnorm.Fold(v.(string)) == "" {
			return nil, queryerr.CastError(field.Name, raw, "non-blank text")
		}
		return v, nil
	default:
		return CastField(field.Name, raw, field.Type)
	}
}

func (n *Normalizer) parseLimit(entity string, raw any) (int, error) {
	limit, err := castInt(KeyLimit, raw)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		return 0, queryerr.InvalidField(entity, KeyLimit, "must be greater than zero")
	}
	if maxLimit := n.cfg.maxLimit(); maxLimit > 0 && limit > maxLimit {
		return 0, queryerr.InvalidField(entity, KeyLimit, fmt.Sprintf("must not exceed %d", maxLimit))
	}
	return limit, nil
}

func parseOffset(entity string, raw any) (int, error) {
	offset, err := castInt(KeyOffset, raw)
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, queryerr.InvalidField(entity, KeyOffset, "must not be negative")
	}
	return offset, nil
}

func castInt(key string, raw any) (int, error) {
	v, err := CastField(key, raw, registry.Number)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, queryerr.CastError(key, raw, "integer")
	}
	return int(i), nil
}

// parseSort accepts "field", "-field", "+field" and "field:asc|desc".
func parseSort(desc *registry.EntityDescriptor, raw any) (*Sort, error) {
	v, err := CastField(KeySort, raw, registry.String)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(v.(string))

	out := &Sort{}
	switch {
	case strings.HasPrefix(s, "-"):
		out.Field, out.Desc = s[1:], true
	case strings.HasPrefix(s, "+"):
		out.Field = s[1:]
	default:
		field, dir, hasDir := strings.Cut(s, ":")
		out.Field = field
		if hasDir {
			switch strings.ToLower(strings.TrimSpace(dir)) {
			case "asc":
			case "desc":
				out.Desc = true
			default:
				return nil, queryerr.InvalidField(desc.Name, KeySort, fmt.Sprintf("unknown direction %q", dir))
			}
		}
	}

	out.Field = strings.TrimSpace(out.Field)
	if _, ok := desc.Field(out.Field); !ok {
		return nil, queryerr.InvalidField(desc.Name, out.Field, "unknown sort field")
	}
	return out, nil
}
