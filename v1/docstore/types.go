package docstore

import (
	"fmt"
	"strings"
)

// NeverMatchID is the identity used to build a membership test that no
// document satisfies. Identities are positive, so -1 is never assigned.
const NeverMatchID = int64(-1)

// Document is a stored record keyed by store field names.
type Document map[string]any

// Get returns the value at a dotted path.
func (d Document) Get(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a shallow copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

// Filter is a native document-store filter: store field names mapped to a
// value (implicit equality) or a Cond, plus the logical keys "$and" and "$or"
// whose values are []Filter.
type Filter map[string]any

// Cond is an operator map applied to one field.
type Cond map[string]any

// Operator keys used in Cond.
const (
	OpEq    = "$eq"
	OpNe    = "$ne"
	OpGt    = "$gt"
	OpGte   = "$gte"
	OpLt    = "$lt"
	OpLte   = "$lte"
	OpIn    = "$in"
	OpNin   = "$nin"
	OpAll   = "$all"
	OpSize  = "$size"
	OpRegex = "$regex"
	OpNot   = "$not"

	KeyAnd = "$and"
	KeyOr  = "$or"
)

// Pattern is the operand of $regex. Folded means the document value must be
// passed through textnorm.Fold before matching.
type Pattern struct {
	Expr            string
	CaseInsensitive bool
	Folded          bool
}

func (p Pattern) String() string {
	flags := ""
	if p.CaseInsensitive {
		flags += "i"
	}
	if p.Folded {
		flags += "f"
	}
	return fmt.Sprintf("/%s/%s", p.Expr, flags)
}

// SortField orders results by one store field.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions controls ordering, windowing and projection of Find.
// A zero Limit means no limit.
type FindOptions struct {
	Sort       []SortField
	Skip       int
	Limit      int
	Projection []string
}
