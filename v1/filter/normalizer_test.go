package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

func newNormalizer() *Normalizer {
	return NewNormalizer(registry.Default(), Config{})
}

func TestNormalizeRejectsUndeclaredFields(t *testing.T) {
	n := newNormalizer()
	reg := registry.Default()

	for _, entity := range reg.Entities() {
		t.Run(entity, func(t *testing.T) {
			_, err := n.Normalize(entity, FromMap(map[string]any{"definitelyNotAField": "x"}))
			assert.ErrorIs(t, err, queryerr.ErrInvalidField)
		})
	}
}

func TestNormalizeUnknownEntity(t *testing.T) {
	_, err := newNormalizer().Normalize("rocket", nil)
	assert.ErrorIs(t, err, queryerr.ErrUnknownEntity)
}

func TestNormalizeStringAndNumberEquivalence(t *testing.T) {
	n := newNormalizer()

	a, err := n.Normalize("game", FromMap(map[string]any{"rating": map[string]any{"gte": "10"}}))
	require.NoError(t, err)
	b, err := n.Normalize("game", FromMap(map[string]any{"rating": map[string]any{"gte": 10}}))
	require.NoError(t, err)

	assert.Equal(t, a.Expression, b.Expression)
}

func TestNormalizeDuplicateFilter(t *testing.T) {
	n := newNormalizer()

	_, err := n.Normalize("game", Params{{Key: "title", Value: "a"}, {Key: "title", Value: "b"}})
	assert.ErrorIs(t, err, queryerr.ErrDuplicateFilter)

	_, err = n.Normalize("savedata", Params{{Key: "user.username", Value: "a"}, {Key: "user.username", Value: "b"}})
	assert.ErrorIs(t, err, queryerr.ErrDuplicateFilter)

	_, err = n.Normalize("game", Params{{Key: "limit", Value: 1}, {Key: "limit", Value: 2}})
	assert.ErrorIs(t, err, queryerr.ErrDuplicateFilter)
}

func TestNormalizeOperatorMap(t *testing.T) {
	req, err := newNormalizer().Normalize("game", FromMap(map[string]any{
		"rating": map[string]any{"gte": "50", "lt": 90},
	}))
	require.NoError(t, err)

	require.Len(t, req.Expression.Children, 2)
	gte := req.Expression.Children[0].(*FieldCondition)
	lt := req.Expression.Children[1].(*FieldCondition)
	assert.Equal(t, OpLt, lt.Operator)
	assert.Equal(t, int64(90), lt.Value)
	assert.Equal(t, OpGte, gte.Operator)
	assert.Equal(t, int64(50), gte.Value)
}

func TestNormalizeOperatorErrors(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		name  string
		param any
		want  error
	}{
		{"unknown operator", map[string]any{"like": "x"}, queryerr.ErrInvalidField},
		{"pattern on number", map[string]any{"contains": "1"}, queryerr.ErrInvalidField},
		{"only marker", map[string]any{"or": true}, queryerr.ErrInvalidField},
		{"bad cast", map[string]any{"gt": "high"}, queryerr.ErrCastError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize("game", Params{{Key: "rating", Value: tt.param}})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeSetOperatorSplitsStrings(t *testing.T) {
	req, err := newNormalizer().Normalize("game", FromMap(map[string]any{
		"platformID": map[string]any{"in": "6, 14"},
	}))
	require.NoError(t, err)

	cond := req.Expression.Children[0].(*FieldCondition)
	assert.Equal(t, OpIn, cond.Operator)
	assert.Equal(t, []any{int64(6), int64(14)}, cond.Value)
}

func TestNormalizeOrFlag(t *testing.T) {
	req, err := newNormalizer().Normalize("game", FromMap(map[string]any{
		"title":  map[string]any{"contains": "zelda", "or": "true"},
		"genres": map[string]any{"eq": "rpg", "or": true},
		"rating": 90,
	}))
	require.NoError(t, err)

	require.Len(t, req.Expression.Children, 2)
	and := req.Expression.Children[0].(*FieldCondition)
	assert.Equal(t, "rating", and.Field.Name)
	assert.False(t, and.Or)

	or := req.Expression.Children[1].(*Composite)
	assert.Equal(t, Or, or.Mode)
	require.Len(t, or.Children, 2)
	for _, c := range or.Children {
		assert.True(t, c.(*FieldCondition).Or)
	}
}

func TestNormalizeAndOrSameFieldKept(t *testing.T) {
	req, err := newNormalizer().Normalize("savedata", Params{
		{Key: "userID", Value: 1},
		{Key: "user.id", Value: map[string]any{"eq": 2, "or": true}},
	})
	require.NoError(t, err)

	require.Len(t, req.Expression.Children, 2)
	assert.IsType(t, &FieldCondition{}, req.Expression.Children[0])
	or := req.Expression.Children[1].(*Composite)
	assert.Equal(t, Or, or.Mode)
	assert.Equal(t, "userID", or.Children[0].(*RelationalCondition).ForeignKey)
}

func TestNormalizeRelationalGrouping(t *testing.T) {
	req, err := newNormalizer().Normalize("savedata", FromMap(map[string]any{
		"user.username": "mario",
		"user.verified": "true",
		"game.title":    map[string]any{"contains": "zelda", "or": true},
		"game.rating":   map[string]any{"gte": 80, "or": true},
	}))
	require.NoError(t, err)

	var and []*RelationalCondition
	var or *Composite
	for _, c := range req.Expression.Children {
		switch v := c.(type) {
		case *RelationalCondition:
			and = append(and, v)
		case *Composite:
			or = v
		}
	}

	require.Len(t, and, 1)
	assert.Equal(t, "user", and[0].Target)
	assert.Equal(t, "userID", and[0].ForeignKey)
	assert.Len(t, and[0].Inner.Children, 2)

	require.NotNil(t, or)
	require.Len(t, or.Children, 2)
	for _, c := range or.Children {
		rc := c.(*RelationalCondition)
		assert.True(t, rc.Or)
		assert.Equal(t, "game", rc.Target)
		assert.Len(t, rc.Inner.Children, 1)
	}
	assert.True(t, req.HasRelational())
}

func TestNormalizeRelationalErrors(t *testing.T) {
	n := newNormalizer()

	_, err := n.Normalize("savedata", FromMap(map[string]any{"rocket.name": "x"}))
	assert.ErrorIs(t, err, queryerr.ErrInvalidField)

	_, err = n.Normalize("user", FromMap(map[string]any{"tag.name": "x"}))
	assert.ErrorIs(t, err, queryerr.ErrInvalidField, "tag is an entity but not a relation of user")

	_, err = n.Normalize("savedata", FromMap(map[string]any{"user.password": "x"}))
	assert.ErrorIs(t, err, queryerr.ErrInvalidField)
}

func TestNormalizePaging(t *testing.T) {
	n := newNormalizer()

	req, err := n.Normalize("game", nil)
	require.NoError(t, err)
	assert.Equal(t, Paging{Limit: DefaultLimit}, req.Paging)
	assert.True(t, req.Expression.Empty())

	req, err = n.Normalize("game", FromMap(map[string]any{"limit": "10", "offset": 20, "sort": "-downloads"}))
	require.NoError(t, err)
	assert.Equal(t, Paging{Limit: 10, Offset: 20, Sort: &Sort{Field: "downloads", Desc: true}}, req.Paging)
	assert.Empty(t, req.FilterKeys)
	assert.Equal(t, 30, req.Paging.End())

	req, err = n.Normalize("game", FromMap(map[string]any{"sort": "title:asc"}))
	require.NoError(t, err)
	assert.Equal(t, &Sort{Field: "title"}, req.Paging.Sort)
	assert.Equal(t, "asc", req.Paging.Sort.Direction())
}

func TestNormalizePagingErrors(t *testing.T) {
	n := NewNormalizer(registry.Default(), Config{MaxLimit: 100})

	tests := []struct {
		name   string
		params map[string]any
		want   error
	}{
		{"zero limit", map[string]any{"limit": 0}, queryerr.ErrInvalidField},
		{"limit over max", map[string]any{"limit": 101}, queryerr.ErrInvalidField},
		{"fractional limit", map[string]any{"limit": 2.5}, queryerr.ErrCastError},
		{"negative offset", map[string]any{"offset": -1}, queryerr.ErrInvalidField},
		{"text offset", map[string]any{"offset": "x"}, queryerr.ErrCastError},
		{"unknown sort field", map[string]any{"sort": "colour"}, queryerr.ErrInvalidField},
		{"unknown direction", map[string]any{"sort": "title:up"}, queryerr.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize("game", FromMap(tt.params))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeInternalIDIsRaw(t *testing.T) {
	raw := map[string]any{"$in": []any{"a", "b"}}
	req, err := newNormalizer().Normalize("game", Params{{Key: "_id", Value: raw}, {Key: "title", Value: "x"}})
	require.NoError(t, err)

	require.NotNil(t, req.RawID)
	assert.Equal(t, raw, req.RawID.Value)
	_, ok := req.Lookup()
	assert.False(t, ok)
}

func TestNormalizeLookup(t *testing.T) {
	n := newNormalizer()

	req, err := n.Normalize("savedata", FromMap(map[string]any{"id": "42", "limit": 5}))
	require.NoError(t, err)
	key, ok := req.Lookup()
	require.True(t, ok)
	assert.Equal(t, LookupKey{Field: "id", Value: int64(42)}, key)

	req, err = n.Normalize("savedata", FromMap(map[string]any{"_id": "abc"}))
	require.NoError(t, err)
	key, ok = req.Lookup()
	require.True(t, ok)
	assert.Equal(t, LookupKey{Field: "_id", Value: "abc", Internal: true}, key)

	req, err = n.Normalize("savedata", FromMap(map[string]any{"id": 42, "title": "x"}))
	require.NoError(t, err)
	_, ok = req.Lookup()
	assert.False(t, ok)

	req, err = n.Normalize("savedata", FromMap(map[string]any{"id": map[string]any{"eq": 42}}))
	require.NoError(t, err)
	_, ok = req.Lookup()
	assert.False(t, ok, "operator form is not a lookup")

	req, err = n.Normalize("savedata", FromMap(map[string]any{
		"_id": map[string]any{"$in": []any{"000000000000000000000005", "000000000000000000000006"}},
	}))
	require.NoError(t, err)
	_, ok = req.Lookup()
	assert.False(t, ok, "operator form of the internal id is not a lookup")
	require.NotNil(t, req.RawID)
}

func TestNormalizeBlankPattern(t *testing.T) {
	n := newNormalizer()

	for _, op := range []string{"contains", "startsWith", "endsWith"} {
		t.Run(op, func(t *testing.T) {
			_, err := n.Normalize("game", Params{{Key: "summary", Value: map[string]any{op: "  "}}})
			assert.ErrorIs(t, err, queryerr.ErrCastError)
		})
	}

	_, err := n.Normalize("game", Params{{Key: "summary", Value: map[string]any{"contains": " a "}}})
	assert.NoError(t, err)
}

func TestRequestFields(t *testing.T) {
	req, err := newNormalizer().Normalize("game", FromMap(map[string]any{
		"rating":    map[string]any{"gte": 1, "lte": 5},
		"downloads": map[string]any{"gt": 10, "or": true},
	}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rating", "downloads"}, req.Fields())
}
