package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aleph-Alpha/querykit/v1/filter"
)

func TestFormatTitleEquality(t *testing.T) {
	req := normalize(t, "game", map[string]any{"title": "Mario & Luigi"})

	f := FormatCondition(req.Expression.Children[0].(*filter.FieldCondition))
	assert.Equal(t, Filter{"title": Cond{OpRegex: Pattern{Expr: "^mario and luigi$", CaseInsensitive: true, Folded: true}}}, f)
}

func TestFormatStringOperators(t *testing.T) {
	tests := []struct {
		op   string
		want Cond
	}{
		{"contains", Cond{OpRegex: Pattern{Expr: `zelda\?`, CaseInsensitive: true, Folded: true}}},
		{"startsWith", Cond{OpRegex: Pattern{Expr: `^zelda\?`, CaseInsensitive: true, Folded: true}}},
		{"endsWith", Cond{OpRegex: Pattern{Expr: `zelda\?$`, CaseInsensitive: true, Folded: true}}},
		{"ne", Cond{OpNot: Cond{OpRegex: Pattern{Expr: `^zelda\?$`, CaseInsensitive: true, Folded: true}}}},
		{"in", Cond{OpIn: []any{"Zelda?"}}},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			req := normalize(t, "game", map[string]any{"title": map[string]any{tt.op: "Zelda?"}})
			f := FormatCondition(req.Expression.Children[0].(*filter.FieldCondition))
			assert.Equal(t, Filter{"title": tt.want}, f)
		})
	}
}

func TestFormatArrayEquality(t *testing.T) {
	req := normalize(t, "game", map[string]any{"platformID": "6,14"})

	f := FormatCondition(req.Expression.Children[0].(*filter.FieldCondition))
	assert.Equal(t, Filter{"platformIDs": Cond{OpAll: []any{int64(6), int64(14)}, OpSize: 2}}, f)
}

func TestFormatComparisons(t *testing.T) {
	req := normalize(t, "game", map[string]any{"rating": map[string]any{"gte": "10", "lt": 20}})

	f, err := NewCompiler(nil, nil, Config{}).Compile(t.Context(), req)
	assert.NoError(t, err)
	assert.Equal(t, Filter{"rating": Cond{OpGte: int64(10), OpLt: int64(20)}}, f)
}

func TestMergeCollisions(t *testing.T) {
	dst := Filter{"a": Cond{OpGt: 1}}
	merge(dst, Filter{"a": Cond{OpLt: 5}})
	assert.Equal(t, Filter{"a": Cond{OpGt: 1, OpLt: 5}}, dst)

	merge(dst, Filter{"a": Cond{OpGt: 2}})
	assert.Equal(t, Filter{
		"a":    Cond{OpGt: 1, OpLt: 5},
		KeyAnd: []Filter{{"a": Cond{OpGt: 2}}},
	}, dst)
}
