package catalog

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// Update applies patch to the entity whose identity is id. Only mutable
// fields may be patched; values are cast to the field types. It returns the
// updated document, or nil when no entity has that identity.
func (s *Service) Update(ctx context.Context, entity string, id any, patch map[string]any) (doc docstore.Document, err error) {
	start := time.Now()
	defer func() {
		s.observeOperation("update", entity, "", time.Since(start), err, int64(len(patch)))
	}()

	desc, err := s.Registry().Describe(entity)
	if err != nil {
		return nil, err
	}
	sel, err := identityFilter(desc, id)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(docstore.Document, len(patch))
	for _, name := range names {
		if !desc.IsMutable(name) {
			return nil, queryerr.InvalidField(entity, name, "field is not mutable")
		}
		field, _ := desc.Field(name)
		v, err := filter.CastField(name, patch[name], field.Type)
		if err != nil {
			return nil, err
		}
		set[field.Store()] = v
	}
	if len(set) == 0 {
		return nil, queryerr.InvalidField(entity, "", "empty patch")
	}

	store := s.compiler.Store()
	existing, err := store.FindOne(ctx, desc.Collection, sel)
	if err != nil {
		return nil, queryerr.Backend("find one in "+desc.Collection, err)
	}
	if existing == nil {
		return nil, nil
	}
	if err := store.Upsert(ctx, desc.Collection, sel, set); err != nil {
		return nil, queryerr.Backend("update "+desc.Collection, err)
	}

	doc, err = store.FindOne(ctx, desc.Collection, sel)
	if err != nil {
		return nil, queryerr.Backend("find one in "+desc.Collection, err)
	}
	return doc, nil
}

// Insert validates and stores a new entity. Every key must be a declared
// field and the identity field must be present and unused.
func (s *Service) Insert(ctx context.Context, entity string, values map[string]any) (doc docstore.Document, err error) {
	start := time.Now()
	defer func() {
		s.observeOperation("insert", entity, "", time.Since(start), err, 1)
	}()

	desc, err := s.Registry().Describe(entity)
	if err != nil {
		return nil, err
	}

	id, ok := values[desc.IdentityField]
	if !ok || id == nil {
		return nil, queryerr.InvalidField(entity, desc.IdentityField, "identity is required")
	}
	sel, err := identityFilter(desc, id)
	if err != nil {
		return nil, err
	}

	doc = make(docstore.Document, len(values))
	for name, raw := range values {
		field, ok := desc.Field(name)
		if !ok {
			return nil, queryerr.InvalidField(entity, name, "not declared")
		}
		if raw == nil {
			continue
		}
		v, err := filter.CastField(name, raw, field.Type)
		if err != nil {
			return nil, err
		}
		doc[field.Store()] = v
	}

	store := s.compiler.Store()
	existing, err := store.FindOne(ctx, desc.Collection, sel)
	if err != nil {
		return nil, queryerr.Backend("find one in "+desc.Collection, err)
	}
	if existing != nil {
		return nil, queryerr.InvalidField(entity, desc.IdentityField, "identity already exists")
	}
	if err := store.Insert(ctx, desc.Collection, doc); err != nil {
		return nil, queryerr.Backend("insert into "+desc.Collection, err)
	}
	return doc, nil
}

// Delete removes every entity matching params and cascades to dependents
// whose relation is flagged Cascade. The result lists the removed
// identities per entity. Each non-empty deletion is published when a
// publisher is set; publishing failures are logged, not returned, since
// the documents are already gone. If a cascade fails, the partial result
// is published and returned together with the error.
func (s *Service) Delete(ctx context.Context, entity string, params filter.Params) (res *DeletionResult, err error) {
	start := time.Now()
	defer func() {
		s.observeOperation("delete", entity, "", time.Since(start), err, int64(res.Total()))
	}()

	ctx, span := s.tracer.Start(ctx, "catalog.Delete", trace.WithAttributes(attribute.String("entity", entity)))
	defer span.End()

	req, err := s.normalizer.Normalize(entity, params)
	if err != nil {
		return nil, err
	}
	if req.Expression.Empty() && req.RawID == nil {
		return nil, queryerr.InvalidField(entity, "", "a filter is required for deletion")
	}

	f, err := s.compiler.Compile(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err = s.deleteMatching(ctx, req.Entity, f, map[string]bool{})
	if res != nil {
		span.SetAttributes(attribute.Int("deleted", res.Total()))
		s.publish(ctx, res)
	}
	if err != nil {
		span.RecordError(err)
		return res, err
	}
	return res, nil
}

// deleteMatching removes the documents of desc matching f, then recurses
// into cascading dependents. active guards against relation cycles.
// When a cascade fails the result still lists everything removed before
// the failure; it is nil only if nothing was removed.
func (s *Service) deleteMatching(ctx context.Context, desc *registry.EntityDescriptor, f docstore.Filter, active map[string]bool) (*DeletionResult, error) {
	reg := s.Registry()
	store := s.compiler.Store()
	idStore := storeName(desc, desc.IdentityField)

	docs, err := store.Find(ctx, desc.Collection, f, docstore.FindOptions{Projection: []string{idStore}})
	if err != nil {
		return nil, queryerr.Backend("find in "+desc.Collection, err)
	}

	res := &DeletionResult{Entity: desc.Name, IDs: make([]any, 0, len(docs))}
	for _, d := range docs {
		if id, ok := d[idStore]; ok && id != nil {
			res.IDs = append(res.IDs, id)
		}
	}
	if len(res.IDs) == 0 {
		return res, nil
	}

	if _, err := store.Delete(ctx, desc.Collection, docstore.Filter{idStore: docstore.Cond{docstore.OpIn: res.IDs}}); err != nil {
		return nil, queryerr.Backend("delete from "+desc.Collection, err)
	}

	active[desc.Name] = true
	defer delete(active, desc.Name)

	for _, dep := range reg.Dependents(desc.Name) {
		if !dep.Relation.Cascade || active[dep.Owner] {
			continue
		}
		owner, err := reg.Describe(dep.Owner)
		if err != nil {
			return res, err
		}
		fk := storeName(owner, dep.Relation.ForeignKey)
		child, err := s.deleteMatching(ctx, owner, docstore.Filter{fk: docstore.Cond{docstore.OpIn: res.IDs}}, active)
		if child.Total() > 0 {
			res.Cascaded = append(res.Cascaded, child)
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) publish(ctx context.Context, res *DeletionResult) {
	if s.publisher == nil || len(res.IDs) == 0 {
		return
	}
	if err := s.publisher.PublishDeletion(ctx, res.Entity, res.IDs); err != nil && s.logger != nil {
		s.logger.Warn("failed to publish deletion", err, map[string]interface{}{
			"entity": res.Entity,
			"count":  len(res.IDs),
		})
	}
	for _, c := range res.Cascaded {
		s.publish(ctx, c)
	}
}

func identityFilter(desc *registry.EntityDescriptor, id any) (docstore.Filter, error) {
	field, ok := desc.Field(desc.IdentityField)
	if !ok {
		return docstore.Filter{desc.IdentityField: id}, nil
	}
	v, err := filter.CastField(field.Name, id, field.Type)
	if err != nil {
		return nil, err
	}
	return docstore.Filter{field.Store(): v}, nil
}

func storeName(desc *registry.EntityDescriptor, name string) string {
	if f, ok := desc.Field(name); ok {
		return f.Store()
	}
	return name
}
