package filter

import (
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// Operator names a comparison accepted in operator-map filter values.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpIn         Operator = "in"
	OpNin        Operator = "nin"
)

// OrMarker is the reserved operator-map key that flags an entry as disjunctive.
const OrMarker = "or"

var operators = map[Operator]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpContains: {}, OpStartsWith: {}, OpEndsWith: {}, OpIn: {}, OpNin: {},
}

// ParseOperator validates an operator name.
func ParseOperator(s string) (Operator, bool) {
	op := Operator(s)
	_, ok := operators[op]
	return op, ok
}

// IsPattern reports whether the operator is a substring match.
func (o Operator) IsPattern() bool {
	return o == OpContains || o == OpStartsWith || o == OpEndsWith
}

// IsSet reports whether the operator takes a list of values.
func (o Operator) IsSet() bool {
	return o == OpIn || o == OpNin
}

// allowedOperators returns the operators a semantic type supports.
func allowedOperators(t registry.SemanticType) map[Operator]struct{} {
	switch t.Kind {
	case registry.KindString:
		return set(OpEq, OpNe, OpContains, OpStartsWith, OpEndsWith, OpIn, OpNin)
	case registry.KindNumber, registry.KindDate:
		return set(OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin)
	case registry.KindBoolean:
		return set(OpEq, OpNe)
	case registry.KindArray:
		return set(OpEq, OpNe, OpIn, OpNin)
	default:
		return nil
	}
}

func set(ops ...Operator) map[Operator]struct{} {
	m := make(map[Operator]struct{}, len(ops))
	for _, op := range ops {
		m[op] = struct{}{}
	}
	return m
}

// Value is the shape of a raw filter value, resolved once during normalization.
type Value interface {
	isValue()
}

// ScalarFilter is a plain value, implying equality.
type ScalarFilter struct {
	Raw any
}

// OperatorValue is one operator of an operator map.
type OperatorValue struct {
	Operator Operator
	Raw      any
}

// OperatorMapFilter is a map of operators applied to one field.
type OperatorMapFilter struct {
	Entries []OperatorValue
	Or      bool
}

func (ScalarFilter) isValue()      {}
func (OperatorMapFilter) isValue() {}

// Mode combines the children of a Composite.
type Mode int

const (
	And Mode = iota
	Or
)

func (m Mode) String() string {
	if m == Or {
		return "OR"
	}
	return "AND"
}

// Node is an element of a filter expression tree.
type Node interface {
	node()
}

// FieldCondition constrains one field of the entity it belongs to.
// Value is already cast to the field's type: a scalar for comparisons and
// patterns, a []any for set operators and array equality.
type FieldCondition struct {
	Field    registry.FieldDescriptor
	Operator Operator
	Value    any
	Or       bool
}

// RelationalCondition constrains the entity through another entity: the
// identities of Target documents matching Inner must appear in ForeignKey.
// Field is set for disjunctive entries, which always cover a single field.
type RelationalCondition struct {
	Relation   string
	Target     string
	ForeignKey string
	Inner      *Composite
	Field      string
	Or         bool
}

// Composite combines child nodes with AND or OR.
type Composite struct {
	Mode     Mode
	Children []Node
}

func (*FieldCondition) node()      {}
func (*RelationalCondition) node() {}
func (*Composite) node()           {}

// Empty reports whether the composite has no children.
func (c *Composite) Empty() bool {
	return c == nil || len(c.Children) == 0
}

// Sort is an explicit ordering request.
type Sort struct {
	Field string
	Desc  bool
}

// Direction renders the sort direction as "asc" or "desc".
func (s Sort) Direction() string {
	if s.Desc {
		return "desc"
	}
	return "asc"
}

// Paging is the window and ordering requested by the caller. Sort stays nil
// when no sort was requested; compilers fall back to identity descending.
type Paging struct {
	Limit  int
	Offset int
	Sort   *Sort
}

// End is the exclusive upper bound of the window, limit+offset.
func (p Paging) End() int {
	return p.Limit + p.Offset
}

// RawID is the storage-internal identifier filter, kept uncast.
type RawID struct {
	Value any
}

// LookupKey is the single key of a request eligible for a direct lookup.
type LookupKey struct {
	// Field is either the entity's identity field or its internal ID field.
	Field string
	Value any
	// Internal is true when Field is the storage-internal identifier.
	Internal bool
}

// Request is a normalized filter request against one entity. It is built
// fresh per call and never mutated after Normalize returns.
type Request struct {
	Entity     *registry.EntityDescriptor
	Expression *Composite
	Paging     Paging
	RawID      *RawID

	// FilterKeys lists the non-reserved keys of the input in input order.
	FilterKeys []string

	lookup *LookupKey
}

// Lookup returns the single-key lookup of the request, if it has one:
// exactly one filter key, which is the internal ID or the identity field
// given as a scalar.
func (r *Request) Lookup() (LookupKey, bool) {
	if r.lookup == nil {
		return LookupKey{}, false
	}
	return *r.lookup, true
}

// HasRelational reports whether any relational condition is present.
func (r *Request) HasRelational() bool {
	found := false
	Walk(r.Expression, func(n Node) {
		if _, ok := n.(*RelationalCondition); ok {
			found = true
		}
	})
	return found
}

// Fields returns the names of the directly filtered fields, without duplicates.
func (r *Request) Fields() []string {
	seen := make(map[string]struct{})
	var out []string
	Walk(r.Expression, func(n Node) {
		if fc, ok := n.(*FieldCondition); ok {
			if _, dup := seen[fc.Field.Name]; !dup {
				seen[fc.Field.Name] = struct{}{}
				out = append(out, fc.Field.Name)
			}
		}
	})
	return out
}

// Walk visits n and its descendants depth-first. Relational inner
// expressions are not entered: they belong to another entity.
func Walk(n Node, fn func(Node)) {
	switch v := n.(type) {
	case nil:
		return
	case *Composite:
		if v == nil {
			return
		}
		fn(v)
		for _, c := range v.Children {
			Walk(c, fn)
		}
	default:
		fn(v)
	}
}
