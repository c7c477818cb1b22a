package igdb

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

const tracerName = "github.com/Aleph-Alpha/querykit/v1/igdb"

// Searcher compiles requests, runs them through an Executor and maps the
// records back to local documents keyed by store field names.
type Searcher struct {
	compiler  *Compiler
	executor  Executor
	platforms Platforms
	logger    Logger
	tracer    trace.Tracer
}

// NewSearcher creates a Searcher.
func NewSearcher(compiler *Compiler, executor Executor, platforms Platforms) *Searcher {
	return &Searcher{
		compiler:  compiler,
		executor:  executor,
		platforms: platforms,
		tracer:    otel.Tracer(tracerName),
	}
}

// WithLogger sets the logger used for records that do not map cleanly.
func (s *Searcher) WithLogger(logger Logger) *Searcher {
	s.logger = logger
	return s
}

// Expressible reports whether req can be answered by the external service.
func (s *Searcher) Expressible(req *filter.Request) bool {
	return s.compiler.Expressible(req)
}

// Search runs req against the external service within w. An impossible
// query returns no documents without contacting the service.
func (s *Searcher) Search(ctx context.Context, req *filter.Request, w Window) ([]docstore.Document, error) {
	ctx, span := s.tracer.Start(ctx, "igdb.Search",
		trace.WithAttributes(attribute.String("entity", req.Entity.Name)))
	defer span.End()

	q, err := s.compiler.Compile(req, w)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if q.Impossible {
		span.SetAttributes(attribute.Bool("impossible", true))
		return []docstore.Document{}, nil
	}
	span.SetAttributes(attribute.String("query", q.String()))

	records, err := s.executor.Execute(ctx, q.Endpoint, q.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, s.toLocal(req.Entity, rec))
	}
	span.SetAttributes(attribute.Int("results", len(docs)))
	return docs, nil
}

// toLocal maps an external record onto the entity's store field names.
// Values that do not cast to the field's type are left out.
func (s *Searcher) toLocal(entity *registry.EntityDescriptor, rec Record) docstore.Document {
	doc := docstore.Document{}
	for _, field := range entity.Fields {
		name, ok := field.External()
		if !ok {
			continue
		}
		raw, ok := lookupPath(map[string]any(rec), strings.Split(name, "."))
		if !ok || raw == nil {
			continue
		}
		v, err := filter.CastField(field.Name, raw, field.Type)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("dropping external value", err, map[string]interface{}{
					"entity": entity.Name,
					"field":  field.Name,
				})
			}
			continue
		}
		if field.Transform == registry.TransformPlatform {
			v = s.localPlatforms(v)
		}
		doc[field.Store()] = v
	}
	return doc
}

func (s *Searcher) localPlatforms(v any) any {
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		external, ok := item.(int64)
		if !ok || s.platforms == nil {
			continue
		}
		if local, found := s.platforms.FromExternal(external); found {
			out = append(out, local)
		}
	}
	return out
}

// lookupPath follows a dotted path through nested objects, collecting the
// values of every element when it meets a list.
func lookupPath(v any, path []string) (any, bool) {
	if len(path) == 0 {
		return v, true
	}
	switch x := v.(type) {
	case map[string]any:
		next, ok := x[path[0]]
		if !ok {
			return nil, false
		}
		return lookupPath(next, path[1:])
	case []any:
		var out []any
		for _, item := range x {
			if got, ok := lookupPath(item, path); ok {
				out = append(out, got)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}
