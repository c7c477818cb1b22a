package catalog

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/hybrid"
	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

const tracerName = "github.com/Aleph-Alpha/querykit/v1/catalog"

// Service is the per-entity query, update and deletion surface.
type Service struct {
	normalizer   *filter.Normalizer
	compiler     *docstore.Compiler
	orchestrator *hybrid.Orchestrator
	external     *igdb.Compiler
	publisher    DeletionPublisher

	observer observability.Observer
	logger   Logger
	tracer   trace.Tracer
}

// NewService creates a service normalizing with normalizer, reading and
// writing the local store through compiler and searching through
// orchestrator.
func NewService(normalizer *filter.Normalizer, compiler *docstore.Compiler, orchestrator *hybrid.Orchestrator) *Service {
	return &Service{
		normalizer:   normalizer,
		compiler:     compiler,
		orchestrator: orchestrator,
		tracer:       otel.Tracer(tracerName),
	}
}

// WithExternalCompiler sets the compiler used to explain external queries.
func (s *Service) WithExternalCompiler(c *igdb.Compiler) *Service {
	s.external = c
	return s
}

// WithPublisher sets the publisher notified of deletions.
func (s *Service) WithPublisher(p DeletionPublisher) *Service {
	s.publisher = p
	return s
}

// WithObserver sets the observer notified of every call.
func (s *Service) WithObserver(observer observability.Observer) *Service {
	s.observer = observer
	return s
}

// WithLogger sets the logger.
func (s *Service) WithLogger(logger Logger) *Service {
	s.logger = logger
	return s
}

// Registry returns the registry requests are normalized against.
func (s *Service) Registry() *registry.Registry {
	return s.normalizer.Registry()
}

// Query answers params against entity.
//
// A request whose only key is the identity field (as a scalar) or the
// internal ID is served by a direct lookup and yields a single entity or
// nil. Anything else yields the page requested by limit, offset and sort.
// Client mistakes are queryerr client errors; store and external failures
// wrap queryerr.ErrBackend.
func (s *Service) Query(ctx context.Context, entity string, params filter.Params) (res *Result, err error) {
	start := time.Now()
	mode := "invalid"
	defer func() {
		size := int64(0)
		if res != nil {
			size = int64(len(res.Items))
			if res.IsSingle && res.Single != nil {
				size = 1
			}
		}
		s.observeOperation("query", entity, mode, time.Since(start), err, size)
	}()

	ctx, span := s.tracer.Start(ctx, "catalog.Query", trace.WithAttributes(attribute.String("entity", entity)))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	req, err := s.normalizer.Normalize(entity, params)
	if err != nil {
		return nil, err
	}

	doc, ok, err := s.compiler.Lookup(ctx, req)
	if ok {
		mode = "lookup"
		span.SetAttributes(attribute.String("mode", mode))
		if err != nil {
			return nil, err
		}
		return &Result{Entity: entity, IsSingle: true, Single: doc}, nil
	}

	out, err := s.orchestrator.Search(ctx, req)
	if err != nil {
		mode = s.orchestrator.Mode(req).String()
		return nil, err
	}
	mode = out.Mode.String()
	span.SetAttributes(attribute.String("mode", mode))

	items := out.Items
	if !out.Windowed() {
		items = window(items, req.Paging.Offset, req.Paging.Limit)
	}
	return &Result{Entity: entity, Items: items, Mode: out.Mode}, nil
}

// QueryMap is Query over a plain parameter map.
func (s *Service) QueryMap(ctx context.Context, entity string, params map[string]any) (*Result, error) {
	return s.Query(ctx, entity, filter.FromMap(params))
}

// QueryValues is Query over URL query parameters in bracket syntax.
func (s *Service) QueryValues(ctx context.Context, entity string, values url.Values) (*Result, error) {
	return s.Query(ctx, entity, filter.FromValues(values))
}

// Explain compiles params against entity without running the query.
// Relational filters are still resolved, so the local store is read.
func (s *Service) Explain(ctx context.Context, entity string, params filter.Params) (*Explanation, error) {
	req, err := s.normalizer.Normalize(entity, params)
	if err != nil {
		return nil, err
	}

	exp := &Explanation{Entity: entity, Mode: s.orchestrator.Mode(req)}
	_, exp.Lookup = req.Lookup()

	if exp.StoreFilter, err = s.compiler.Compile(ctx, req); err != nil {
		return nil, err
	}
	exp.FindOptions = docstore.PageOptions(req)

	w := igdb.PageWindow(req)
	target := req
	if exp.Mode == hybrid.ModeLocalFirst {
		exp.FindOptions.Skip, exp.FindOptions.Limit = 0, req.Paging.End()
		w = igdb.Window{Limit: req.Paging.End()}
		target = hybrid.PaddingRequest(req)
	}

	if s.external != nil && req.Entity.IsExternal() && exp.Mode != hybrid.ModeLocal {
		q, err := s.external.Compile(target, w)
		switch {
		case err != nil:
			exp.ExternalError = err.Error()
		case q.Impossible:
			exp.ExternalError = "query matches nothing externally"
		default:
			exp.ExternalQuery = q.String()
		}
	}
	return exp, nil
}

// window returns items[offset:offset+limit], clamped.
func window(items []docstore.Document, offset, limit int) []docstore.Document {
	if offset >= len(items) {
		return []docstore.Document{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
