package hybrid

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/observability"
)

const tracerName = "github.com/Aleph-Alpha/querykit/v1/hybrid"

// Result is the outcome of one orchestrated search.
type Result struct {
	Mode  Mode
	Items []docstore.Document

	// Local and External count the items contributed by each side.
	Local    int
	External int
}

// Windowed reports whether Items already honour the request's offset.
// Local-first results start at the first match and leave the offset to
// the caller.
func (r *Result) Windowed() bool {
	return r.Mode != ModeLocalFirst
}

// Orchestrator answers requests from the local store, the external
// catalog, or both.
type Orchestrator struct {
	local    LocalSearcher
	external ExternalSearcher
	cfg      Config

	observer observability.Observer
	logger   Logger
	tracer   trace.Tracer
}

// NewOrchestrator creates an orchestrator. external may be nil, in which
// case every request is answered locally.
func NewOrchestrator(local LocalSearcher, external ExternalSearcher, cfg Config) *Orchestrator {
	return &Orchestrator{
		local:    local,
		external: external,
		cfg:      cfg,
		tracer:   otel.Tracer(tracerName),
	}
}

// WithObserver sets the observer notified of every backend call.
func (o *Orchestrator) WithObserver(observer observability.Observer) *Orchestrator {
	o.observer = observer
	return o
}

// WithLogger sets the logger used for diagnostics.
func (o *Orchestrator) WithLogger(logger Logger) *Orchestrator {
	o.logger = logger
	return o
}

// Mode returns the mode req will be answered in.
func (o *Orchestrator) Mode(req *filter.Request) Mode {
	if o.external == nil {
		return ModeLocal
	}
	return DecideMode(req)
}

// Search answers req.
//
// In local-first mode the local query covers the first limit+offset
// matches. When it comes up short, the external catalog is asked for the
// remainder from offset 0, excluding the external IDs already found, and
// its results are appended after the local ones. The combined sequence is
// not re-sliced.
func (o *Orchestrator) Search(ctx context.Context, req *filter.Request) (*Result, error) {
	mode := o.Mode(req)
	ctx, span := o.tracer.Start(ctx, "hybrid.Search", trace.WithAttributes(
		attribute.String("entity", req.Entity.Name),
		attribute.String("mode", mode.String()),
	))
	defer span.End()

	var (
		res *Result
		err error
	)
	switch mode {
	case ModeExternal:
		res, err = o.searchExternal(ctx, req)
	case ModeLocalFirst:
		res, err = o.searchLocalFirst(ctx, req)
	default:
		res, err = o.searchLocal(ctx, req)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("results.local", res.Local),
		attribute.Int("results.external", res.External),
	)
	return res, nil
}

func (o *Orchestrator) searchLocal(ctx context.Context, req *filter.Request) (*Result, error) {
	docs, err := o.findLocal(ctx, req, docstore.PageOptions(req))
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeLocal, Items: docs, Local: len(docs)}, nil
}

func (o *Orchestrator) searchExternal(ctx context.Context, req *filter.Request) (*Result, error) {
	docs, err := o.searchRemote(ctx, req, igdb.PageWindow(req))
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeExternal, Items: docs, External: len(docs)}, nil
}

func (o *Orchestrator) searchLocalFirst(ctx context.Context, req *filter.Request) (*Result, error) {
	want := req.Paging.End()
	local, err := o.findLocal(ctx, req, docstore.FindOptions{
		Sort:  docstore.SortFor(req.Entity, req.Paging.Sort),
		Limit: want,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Mode: ModeLocalFirst, Items: local, Local: len(local)}
	if len(local) >= want || o.cfg.DisablePadding {
		return res, nil
	}
	if !o.external.Expressible(req) {
		if o.logger != nil {
			o.logger.Debug("skipping external padding", nil, map[string]interface{}{
				"entity": req.Entity.Name,
				"local":  len(local),
			})
		}
		return res, nil
	}

	exclude := externalIDs(req, local)
	seen := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		seen[id] = struct{}{}
	}

	padded, err := o.searchRemote(ctx, PaddingRequest(req), igdb.Window{
		Limit:      want - len(local),
		ExcludeIDs: exclude,
	})
	if err != nil {
		return nil, err
	}
	for _, d := range padded {
		if id, ok := externalID(req, d); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		res.Items = append(res.Items, d)
		res.External++
	}
	return res, nil
}

func (o *Orchestrator) findLocal(ctx context.Context, req *filter.Request, opts docstore.FindOptions) ([]docstore.Document, error) {
	start := time.Now()
	docs, err := o.local.Find(ctx, req, opts)
	o.observeOperation("local", req.Entity.Name, time.Since(start), err, int64(len(docs)))
	return docs, err
}

func (o *Orchestrator) searchRemote(ctx context.Context, req *filter.Request, w igdb.Window) ([]docstore.Document, error) {
	start := time.Now()
	docs, err := o.external.Search(ctx, req, w)
	o.observeOperation("external", req.Entity.Name, time.Since(start), err, int64(len(docs)))
	return docs, err
}

// PaddingRequest returns req without a local-only sort, which the external
// catalog cannot order by.
func PaddingRequest(req *filter.Request) *filter.Request {
	s := req.Paging.Sort
	if s == nil || !req.Entity.IsLocalOnly(s.Field) {
		return req
	}
	pad := *req
	pad.Paging.Sort = nil
	return &pad
}

func externalIDs(req *filter.Request, docs []docstore.Document) []int64 {
	out := make([]int64, 0, len(docs))
	for _, d := range docs {
		if id, ok := externalID(req, d); ok {
			out = append(out, id)
		}
	}
	return out
}

// externalID reads the external identity of a document, stored under the
// entity's local identity field for external records.
func externalID(req *filter.Request, d docstore.Document) (int64, bool) {
	ext := req.Entity.External
	if ext == nil {
		return 0, false
	}
	field, ok := req.Entity.Field(ext.LocalIdentityField)
	if !ok {
		return 0, false
	}
	raw, ok := d.Get(field.Store())
	if !ok || raw == nil {
		return 0, false
	}
	v, err := filter.Cast(raw, field.Type)
	if err != nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
