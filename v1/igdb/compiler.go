package igdb

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
	"github.com/Aleph-Alpha/querykit/v1/textnorm"
)

// Window is the slice of external results requested. ExcludeIDs lists
// external identities to leave out, typically those already found locally.
type Window struct {
	Limit      int
	Offset     int
	ExcludeIDs []int64
}

// PageWindow returns the window requested by req's paging.
func PageWindow(req *filter.Request) Window {
	return Window{Limit: req.Paging.Limit, Offset: req.Paging.Offset}
}

// Compiler turns normalized requests into external text queries.
type Compiler struct {
	platforms Platforms
	cfg       Config
}

// NewCompiler creates a compiler remapping platform filters through platforms.
func NewCompiler(platforms Platforms, cfg Config) *Compiler {
	return &Compiler{platforms: platforms, cfg: cfg}
}

// Compile builds the external query for req restricted to w.
//
// Relational filters and the internal ID have no external meaning and fail
// with queryerr.ErrUnsupportedFilter, as do nin and local-only fields.
// Without a platform filter the query is scoped to the platform allow-list
// and, unless versions are included, to top-level records.
func (c *Compiler) Compile(req *filter.Request, w Window) (*Query, error) {
	entity := req.Entity
	ext := entity.External
	if ext == nil {
		return nil, queryerr.Unsupported(entity.Name, "", "entity is not known to the external service")
	}
	if req.RawID != nil {
		return nil, queryerr.Unsupported(entity.Name, entity.InternalIDField, "internal identifiers are local")
	}

	limit := w.Limit
	if limit <= 0 {
		limit = filter.DefaultLimit
	}
	q := &Query{
		Endpoint: ext.Endpoint,
		Fields:   ext.Fields,
		Limit:    min(limit, c.cfg.maxLimit()),
		Offset:   max(w.Offset, 0),
	}

	st := &compileState{entity: entity}
	for _, child := range req.Expression.Children {
		clause, impossible, err := c.render(st, child, false)
		if err != nil {
			return nil, err
		}
		if impossible {
			q.Impossible = true
			continue
		}
		if clause != "" {
			q.Where = append(q.Where, clause)
		}
	}

	if !st.platformFiltered {
		if field, ok := platformField(entity); ok {
			name, _ := field.External()
			q.Where = append(q.Where, name+" = "+formatList(int64s(c.cfg.allowList()), "(", ")"))
		}
		if !c.cfg.IncludeVersions {
			q.Where = append(q.Where, "version_parent = null")
		}
	}

	for _, id := range w.ExcludeIDs {
		q.Where = append(q.Where, fmt.Sprintf("%s != %d", ext.IdentityField, id))
	}

	if s := req.Paging.Sort; s != nil {
		field, _ := entity.Field(s.Field)
		name, ok := field.External()
		if !ok {
			return nil, queryerr.Unsupported(entity.Name, s.Field, "sort field is local-only")
		}
		q.SortField, q.SortDesc = name, s.Desc
	} else {
		q.SortField, q.SortDesc = ext.IdentityField, true
	}

	return q, nil
}

// Expressible reports whether every condition of req can be sent to the
// external service. Local-only sorting does not count: the external side
// falls back to its default order.
func (c *Compiler) Expressible(req *filter.Request) bool {
	if req.Entity.External == nil || req.RawID != nil {
		return false
	}
	st := &compileState{entity: req.Entity}
	for _, child := range req.Expression.Children {
		if _, _, err := c.render(st, child, false); err != nil {
			return false
		}
	}
	return true
}

type compileState struct {
	entity           *registry.EntityDescriptor
	platformFiltered bool
}

// render returns the clause of n. impossible reports that n can match
// nothing after platform remapping.
func (c *Compiler) render(st *compileState, n filter.Node, nested bool) (string, bool, error) {
	switch v := n.(type) {
	case *filter.FieldCondition:
		return c.renderCondition(st, v)

	case *filter.RelationalCondition:
		return "", false, queryerr.Unsupported(st.entity.Name, v.Relation+"."+v.Field, "relational filters cannot be joined externally")

	case *filter.Composite:
		sep := " & "
		if v.Mode == filter.Or {
			sep = " | "
		}
		var parts []string
		allImpossible := len(v.Children) > 0
		for _, child := range v.Children {
			clause, impossible, err := c.render(st, child, true)
			if err != nil {
				return "", false, err
			}
			if impossible {
				if v.Mode == filter.And {
					return "", true, nil
				}
				continue
			}
			allImpossible = false
			if clause != "" {
				parts = append(parts, clause)
			}
		}
		if v.Mode == filter.Or && allImpossible {
			return "", true, nil
		}
		out := strings.Join(parts, sep)
		if len(parts) > 1 && (nested || v.Mode == filter.Or) {
			out = "(" + out + ")"
		}
		return out, false, nil
	}
	return "", false, nil
}

func (c *Compiler) renderCondition(st *compileState, fc *filter.FieldCondition) (string, bool, error) {
	entity := st.entity.Name
	field := fc.Field
	name, ok := field.External()
	if !ok {
		return "", false, queryerr.Unsupported(entity, field.Name, "field is local-only")
	}
	if fc.Operator == filter.OpNin {
		return "", false, queryerr.Unsupported(entity, field.Name, "nin has no external equivalent")
	}

	value := fc.Value
	switch field.Transform {
	case registry.TransformSlug:
		switch fc.Operator {
		case filter.OpEq:
			variants := c.slugVariants(value.(string))
			if variants == nil {
				return "", true, nil
			}
			return field.SlugField + " = " + formatList(variants, "(", ")"), false, nil
		case filter.OpIn:
			return field.SlugField + " = " + formatList(value.([]any), "(", ")"), false, nil
		}

	case registry.TransformPlatform:
		st.platformFiltered = true
		mapped := c.mapPlatforms(value)
		if len(mapped) == 0 {
			if fc.Operator == filter.OpNe {
				return "", false, nil
			}
			return "", true, nil
		}
		value = mapped
	}

	switch fc.Operator {
	case filter.OpContains:
		return name + " ~ " + formatPattern(value.(string), true, true), false, nil
	case filter.OpStartsWith:
		return name + " ~ " + formatPattern(value.(string), false, true), false, nil
	case filter.OpEndsWith:
		return name + " ~ " + formatPattern(value.(string), true, false), false, nil
	case filter.OpIn:
		return name + " = " + formatList(value.([]any), "(", ")"), false, nil
	}

	op := comparison(fc.Operator)
	if list, isList := value.([]any); isList {
		return name + " " + op + " " + formatList(list, "{", "}"), false, nil
	}
	return name + " " + op + " " + formatValue(value), false, nil
}

// slugVariants returns nil when the title has no sluggable characters.
func (c *Compiler) slugVariants(title string) []any {
	slug := textnorm.Slug(title)
	if slug == "" {
		return nil
	}
	out := make([]any, 0, c.cfg.slugVariants()+1)
	out = append(out, slug)
	for i := 1; i <= c.cfg.slugVariants(); i++ {
		out = append(out, fmt.Sprintf("%s--%d", slug, i))
	}
	return out
}

// mapPlatforms translates local platform IDs, dropping unmapped ones.
func (c *Compiler) mapPlatforms(v any) []any {
	var values []any
	switch x := v.(type) {
	case []any:
		values = x
	default:
		values = []any{x}
	}

	out := make([]any, 0, len(values))
	for _, item := range values {
		local, ok := item.(int64)
		if !ok || c.platforms == nil {
			continue
		}
		if external, found := c.platforms.ToExternal(local); found {
			out = append(out, external)
		}
	}
	return out
}

func comparison(op filter.Operator) string {
	switch op {
	case filter.OpNe:
		return "!="
	case filter.OpGt:
		return ">"
	case filter.OpGte:
		return ">="
	case filter.OpLt:
		return "<"
	case filter.OpLte:
		return "<="
	default:
		return "="
	}
}

func platformField(entity *registry.EntityDescriptor) (registry.FieldDescriptor, bool) {
	for _, f := range entity.Fields {
		if f.Transform == registry.TransformPlatform {
			return f, true
		}
	}
	return registry.FieldDescriptor{}, false
}

func int64s(in []int64) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
