package docstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

const tracerName = "github.com/Aleph-Alpha/querykit/v1/docstore"

// Compiler turns normalized requests into native filters and runs them
// against a Store.
type Compiler struct {
	registry *registry.Registry
	store    Store
	cfg      Config

	observer observability.Observer
	logger   Logger
	tracer   trace.Tracer
}

// NewCompiler creates a compiler resolving relations through reg and
// querying store.
func NewCompiler(reg *registry.Registry, store Store, cfg Config) *Compiler {
	return &Compiler{
		registry: reg,
		store:    store,
		cfg:      cfg,
		tracer:   otel.Tracer(tracerName),
	}
}

// WithObserver sets the observer notified of every store operation.
func (c *Compiler) WithObserver(observer observability.Observer) *Compiler {
	c.observer = observer
	return c
}

// WithLogger sets the logger used for diagnostics.
func (c *Compiler) WithLogger(logger Logger) *Compiler {
	c.logger = logger
	return c
}

// Store returns the underlying store.
func (c *Compiler) Store() Store {
	return c.store
}

// Compile builds the native filter of req.
//
// Relational conditions are resolved first: each one runs its inner
// expression against the related entity's collection, concurrently with
// the others, and collapses to a membership test on the foreign key. A
// relation matching nothing yields {fk: {$in: [NeverMatchID]}}. The
// internal ID filter, if any, is merged last and as given.
func (c *Compiler) Compile(ctx context.Context, req *filter.Request) (Filter, error) {
	ctx, span := c.tracer.Start(ctx, "docstore.Compile",
		trace.WithAttributes(attribute.String("entity", req.Entity.Name)))
	defer span.End()

	out, err := c.compile(ctx, req.Expression)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if req.RawID != nil {
		out[req.Entity.InternalIDField] = req.RawID.Value
	}
	return out, nil
}

// Lookup serves single-key requests directly with FindOne. ok is false
// when req is not eligible; callers then use Find.
func (c *Compiler) Lookup(ctx context.Context, req *filter.Request) (doc Document, ok bool, err error) {
	key, ok := req.Lookup()
	if !ok {
		return nil, false, nil
	}

	field := key.Field
	if !key.Internal {
		if fd, found := req.Entity.Field(key.Field); found {
			field = fd.Store()
		}
	}

	start := time.Now()
	doc, err = c.store.FindOne(ctx, req.Entity.Collection, Filter{field: key.Value})
	size := int64(0)
	if doc != nil {
		size = 1
	}
	c.observeOperation("find_one", req.Entity.Collection, field, time.Since(start), err, size)
	if err != nil {
		return nil, true, queryerr.Backend("find one in "+req.Entity.Collection, err)
	}
	return doc, true, nil
}

// Find compiles req and runs it with opts. Use PageOptions for the
// window and ordering the request asked for.
func (c *Compiler) Find(ctx context.Context, req *filter.Request, opts FindOptions) ([]Document, error) {
	f, err := c.Compile(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	docs, err := c.store.Find(ctx, req.Entity.Collection, f, opts)
	c.observeOperation("find", req.Entity.Collection, "", time.Since(start), err, int64(len(docs)))
	if err != nil {
		return nil, queryerr.Backend("find in "+req.Entity.Collection, err)
	}
	return docs, nil
}

// PageOptions returns the find options requested by req's paging: its sort
// (identity descending when none was given), offset and limit.
func PageOptions(req *filter.Request) FindOptions {
	return FindOptions{
		Sort:  SortFor(req.Entity, req.Paging.Sort),
		Skip:  req.Paging.Offset,
		Limit: req.Paging.Limit,
	}
}

// SortFor translates a requested sort into store fields. The identity field,
// descending, is the default and breaks ties otherwise.
func SortFor(entity *registry.EntityDescriptor, s *filter.Sort) []SortField {
	identity := entity.IdentityField
	if fd, ok := entity.Field(identity); ok {
		identity = fd.Store()
	}
	tiebreak := SortField{Field: identity, Desc: true}

	if s == nil {
		return []SortField{tiebreak}
	}
	fd, ok := entity.Field(s.Field)
	if !ok {
		return []SortField{tiebreak}
	}
	out := []SortField{{Field: fd.Store(), Desc: s.Desc}}
	if fd.Store() != identity {
		out = append(out, tiebreak)
	}
	return out
}

func (c *Compiler) compile(ctx context.Context, expr *filter.Composite) (Filter, error) {
	resolved, err := c.resolve(ctx, expr)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return Filter{}, nil
	}
	return build(expr, resolved), nil
}

// resolve runs every relational sub-query of expr and waits for all of them.
func (c *Compiler) resolve(ctx context.Context, expr *filter.Composite) (map[*filter.RelationalCondition][]any, error) {
	var relations []*filter.RelationalCondition
	filter.Walk(expr, func(n filter.Node) {
		if rc, ok := n.(*filter.RelationalCondition); ok {
			relations = append(relations, rc)
		}
	})
	if len(relations) == 0 {
		return nil, nil
	}

	ids := make([][]any, len(relations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.maxConcurrentResolves())
	for i, rc := range relations {
		g.Go(func() error {
			v, err := c.resolveRelation(gctx, rc)
			ids[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[*filter.RelationalCondition][]any, len(relations))
	for i, rc := range relations {
		out[rc] = ids[i]
	}
	return out, nil
}

func (c *Compiler) resolveRelation(ctx context.Context, rc *filter.RelationalCondition) ([]any, error) {
	target, err := c.registry.Describe(rc.Target)
	if err != nil {
		return nil, err
	}
	inner, err := c.compile(ctx, rc.Inner)
	if err != nil {
		return nil, err
	}

	identity := target.IdentityField
	if fd, ok := target.Field(identity); ok {
		identity = fd.Store()
	}

	start := time.Now()
	ids, err := c.store.Distinct(ctx, target.Collection, identity, inner)
	c.observeOperation("distinct", target.Collection, rc.ForeignKey, time.Since(start), err, int64(len(ids)))
	if err != nil {
		return nil, queryerr.Backend("resolve relation "+rc.Relation, err)
	}

	if len(ids) == 0 {
		if c.logger != nil {
			c.logger.Debug("relation matched nothing", nil, map[string]interface{}{
				"relation":    rc.Relation,
				"foreign_key": rc.ForeignKey,
			})
		}
		return []any{NeverMatchID}, nil
	}
	return ids, nil
}

func build(n filter.Node, resolved map[*filter.RelationalCondition][]any) Filter {
	switch v := n.(type) {
	case *filter.FieldCondition:
		return FormatCondition(v)

	case *filter.RelationalCondition:
		return Filter{v.ForeignKey: Cond{OpIn: resolved[v]}}

	case *filter.Composite:
		if v.Mode == filter.Or {
			if len(v.Children) == 0 {
				return Filter{}
			}
			list := make([]Filter, 0, len(v.Children))
			for _, child := range v.Children {
				list = append(list, build(child, resolved))
			}
			return Filter{KeyOr: list}
		}
		out := Filter{}
		for _, child := range v.Children {
			merge(out, build(child, resolved))
		}
		return out
	}
	return Filter{}
}
