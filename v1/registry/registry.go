package registry

import (
	"fmt"
	"sort"

	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

// DefaultInternalIDField is the storage-internal identifier name.
const DefaultInternalIDField = "_id"

// Registry is an immutable set of entity descriptors keyed by entity name.
// Relations are resolved by name at query time, so entities may reference
// each other in both directions.
type Registry struct {
	entities map[string]*EntityDescriptor
}

// New validates the descriptors and returns a registry over them.
// Descriptors are copied; later changes to the arguments are not observed.
func New(entities ...EntityDescriptor) (*Registry, error) {
	r := &Registry{entities: make(map[string]*EntityDescriptor, len(entities))}

	for i := range entities {
		e := entities[i]
		if e.Name == "" {
			return nil, fmt.Errorf("registry: entity %d has no name", i)
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("registry: entity %q registered twice", e.Name)
		}
		if e.Collection == "" {
			e.Collection = e.Name
		}
		if e.InternalIDField == "" {
			e.InternalIDField = DefaultInternalIDField
		}
		if _, ok := e.Fields[e.IdentityField]; !ok {
			return nil, fmt.Errorf("registry: entity %q: identity field %q is not declared", e.Name, e.IdentityField)
		}

		fields := make(map[string]FieldDescriptor, len(e.Fields))
		for name, f := range e.Fields {
			f.Name = name
			if f.Transform == TransformSlug && f.SlugField == "" {
				return nil, fmt.Errorf("registry: entity %q: field %q needs a slug field", e.Name, name)
			}
			fields[name] = f
		}
		e.Fields = fields

		for _, m := range e.MutableFields {
			if _, ok := fields[m]; !ok {
				return nil, fmt.Errorf("registry: entity %q: mutable field %q is not declared", e.Name, m)
			}
		}

		e.LocalOnlyFields = make(map[string]struct{})
		if e.External != nil {
			for name, f := range fields {
				if f.ExternalName == "" {
					e.LocalOnlyFields[name] = struct{}{}
				}
			}
		}

		rels := make(map[string]Relation, len(e.Relations))
		for name, rel := range e.Relations {
			if rel.Entity == "" {
				rel.Entity = name
			}
			rels[name] = rel
		}
		e.Relations = rels

		r.entities[e.Name] = &e
	}

	for _, e := range r.entities {
		for name, rel := range e.Relations {
			if _, ok := r.entities[rel.Entity]; !ok {
				return nil, fmt.Errorf("registry: entity %q: relation %q targets unknown entity %q", e.Name, name, rel.Entity)
			}
		}
	}

	return r, nil
}

// Describe returns the descriptor of the named entity.
// The returned descriptor must be treated as read-only.
func (r *Registry) Describe(name string) (*EntityDescriptor, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, queryerr.UnknownEntity(name)
	}
	return e, nil
}

// Entities returns the registered entity names in sorted order.
func (r *Registry) Entities() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependents returns, for the named entity, every (owner, relation) pair
// whose relation targets it. The result is sorted by owner name.
func (r *Registry) Dependents(name string) []Dependent {
	var out []Dependent
	for _, owner := range r.Entities() {
		e := r.entities[owner]
		for relName, rel := range e.Relations {
			if rel.Entity == name {
				out = append(out, Dependent{Owner: owner, Name: relName, Relation: rel})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner < out[j].Owner
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Dependent is a relation seen from its target entity.
type Dependent struct {
	Owner    string
	Name     string
	Relation Relation
}
