package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

// Exit codes of the querykit command.
const (
	ExitSuccess  = 0
	ExitFailure  = 1 // backend or unexpected failure
	ExitUsage    = 2 // rejected request or bad invocation
	ExitNotFound = 3
)

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func newExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// exitCode maps err to a process exit code. Rejected requests exit with
// ExitUsage, everything else with ExitFailure unless err says otherwise.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if queryerr.IsClientError(err) {
		return ExitUsage
	}
	return ExitFailure
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type resultOutput struct {
	Entity string              `json:"entity"`
	Mode   string              `json:"mode,omitempty"`
	Item   docstore.Document   `json:"item,omitempty"`
	Count  int                 `json:"count"`
	Items  []docstore.Document `json:"items,omitempty"`
}

func newResultOutput(res *catalog.Result) resultOutput {
	if res.IsSingle {
		out := resultOutput{Entity: res.Entity, Item: res.Single}
		if res.Single != nil {
			out.Count = 1
		}
		return out
	}
	items := res.Items
	if items == nil {
		items = []docstore.Document{}
	}
	return resultOutput{
		Entity: res.Entity,
		Mode:   res.Mode.String(),
		Count:  len(res.Items),
		Items:  items,
	}
}

type explainOutput struct {
	Entity        string       `json:"entity"`
	Mode          string       `json:"mode"`
	Lookup        bool         `json:"lookup"`
	StoreFilter   any          `json:"store_filter"`
	Sort          []sortOutput `json:"sort,omitempty"`
	Skip          int          `json:"skip,omitempty"`
	Limit         int          `json:"limit,omitempty"`
	Projection    []string     `json:"projection,omitempty"`
	ExternalQuery string       `json:"external_query,omitempty"`
	ExternalError string       `json:"external_error,omitempty"`
}

type sortOutput struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

func newExplainOutput(e *catalog.Explanation) explainOutput {
	out := explainOutput{
		Entity:        e.Entity,
		Mode:          e.Mode.String(),
		Lookup:        e.Lookup,
		StoreFilter:   renderFilterValue(e.StoreFilter),
		Skip:          e.FindOptions.Skip,
		Limit:         e.FindOptions.Limit,
		Projection:    e.FindOptions.Projection,
		ExternalQuery: e.ExternalQuery,
		ExternalError: e.ExternalError,
	}
	for _, s := range e.FindOptions.Sort {
		out.Sort = append(out.Sort, sortOutput{Field: s.Field, Desc: s.Desc})
	}
	return out
}

// renderFilterValue turns a native filter into plain JSON values: patterns
// print as /expr/flags and times as RFC 3339.
func renderFilterValue(v any) any {
	switch x := v.(type) {
	case docstore.Filter:
		return renderMap(x)
	case docstore.Cond:
		return renderMap(x)
	case map[string]any:
		return renderMap(x)
	case []docstore.Filter:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = renderMap(f)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = renderFilterValue(e)
		}
		return out
	case docstore.Pattern:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func renderMap[M ~map[string]any](m M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = renderFilterValue(v)
	}
	return out
}

type deletionOutput struct {
	Entity   string           `json:"entity"`
	IDs      []any            `json:"ids"`
	Total    int              `json:"total"`
	Cascaded []deletionOutput `json:"cascaded,omitempty"`
}

func newDeletionOutput(d *catalog.DeletionResult) deletionOutput {
	ids := d.IDs
	if ids == nil {
		ids = []any{}
	}
	out := deletionOutput{Entity: d.Entity, IDs: ids, Total: d.Total()}
	for _, c := range d.Cascaded {
		out.Cascaded = append(out.Cascaded, newDeletionOutput(c))
	}
	return out
}

type exportOutput struct {
	Entity     string `json:"entity"`
	Collection string `json:"collection"`
	Count      int    `json:"count"`
	Seed       string `json:"seed"`
}
