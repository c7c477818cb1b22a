package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// TestObserver records observed operations.
type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]observability.OperationContext{}, t.operations...)
}

func newCompiler(store Store) *Compiler {
	return NewCompiler(registry.Default(), store, Config{})
}

func TestCompileStringNumberEquivalence(t *testing.T) {
	c := newCompiler(seededStore())

	a, err := c.Compile(context.Background(), normalize(t, "game", map[string]any{"rating": map[string]any{"gte": "10"}}))
	require.NoError(t, err)
	b, err := c.Compile(context.Background(), normalize(t, "game", map[string]any{"rating": map[string]any{"gte": 10}}))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFindRoundTrip(t *testing.T) {
	c := newCompiler(seededStore())

	docs := find(t, c, "game", map[string]any{"title": map[string]any{"contains": "mario"}})
	assert.Equal(t, []int64{4, 1}, ids(docs))

	narrowed := find(t, c, "game", map[string]any{
		"title":  map[string]any{"contains": "mario"},
		"rating": map[string]any{"gt": 85},
	})
	assert.Equal(t, []int64{1}, ids(narrowed))

	more := find(t, c, "game", map[string]any{
		"title":     map[string]any{"contains": "mario"},
		"rating":    map[string]any{"gt": 85},
		"downloads": map[string]any{"lte": 1000},
	})
	assert.LessOrEqual(t, len(more), len(narrowed))
}

func TestFindFoldedEquality(t *testing.T) {
	c := newCompiler(seededStore())

	assert.Equal(t, []int64{2}, ids(find(t, c, "game", map[string]any{"title": "POKEMON emerald"})))
	assert.Equal(t, []int64{1}, ids(find(t, c, "game", map[string]any{"title": map[string]any{"startsWith": "mario and"}})))
	assert.Empty(t, find(t, c, "game", map[string]any{"title": "Mario"}))
}

func TestFindArrayExactSet(t *testing.T) {
	c := newCompiler(seededStore())

	assert.Equal(t, []int64{4, 1}, ids(find(t, c, "game", map[string]any{"platformID": "14,6"})))
	assert.Equal(t, []int64{2}, ids(find(t, c, "game", map[string]any{"platformID": 14})))
	assert.Equal(t, []int64{4, 2, 1}, ids(find(t, c, "game", map[string]any{"platformID": map[string]any{"in": "14"}})))
}

func TestFindInIsSubsetOfUnion(t *testing.T) {
	c := newCompiler(seededStore())

	union := map[int64]struct{}{}
	for _, v := range []int64{1, 3, 99} {
		for _, id := range ids(find(t, c, "game", map[string]any{"id": map[string]any{"eq": v}})) {
			union[id] = struct{}{}
		}
	}

	in := ids(find(t, c, "game", map[string]any{"id": map[string]any{"in": "1;3;99"}}))
	assert.LessOrEqual(t, len(in), len(union))
	for _, id := range in {
		assert.Contains(t, union, id)
	}
}

func TestFindSortAndPaging(t *testing.T) {
	c := newCompiler(seededStore())

	assert.Equal(t, []int64{4, 3, 2, 1}, ids(find(t, c, "game", nil)))
	assert.Equal(t, []int64{2, 1}, ids(find(t, c, "game", map[string]any{"sort": "-downloads", "limit": 2})))
	assert.Equal(t, []int64{3}, ids(find(t, c, "game", map[string]any{"sort": "rating:desc", "limit": 1})))
	assert.Equal(t, []int64{1, 2}, ids(find(t, c, "game", map[string]any{"sort": "id", "offset": 0, "limit": 2})))
	assert.Equal(t, []int64{2}, ids(find(t, c, "game", map[string]any{"sort": "id", "offset": 1, "limit": 1})))
}

func TestFindOrComposition(t *testing.T) {
	c := newCompiler(seededStore())

	docs := find(t, c, "game", map[string]any{
		"title":  map[string]any{"contains": "zelda", "or": true},
		"rating": map[string]any{"eq": 90, "or": true},
	})
	assert.Equal(t, []int64{3, 2}, ids(docs))

	docs = find(t, c, "game", map[string]any{
		"downloads": map[string]any{"gte": 50},
		"title":     map[string]any{"contains": "zelda", "or": true},
		"rating":    map[string]any{"eq": 90, "or": true},
	})
	assert.Equal(t, []int64{3, 2}, ids(docs))

	docs = find(t, c, "game", map[string]any{
		"downloads": map[string]any{"gte": 100},
		"title":     map[string]any{"contains": "zelda", "or": true},
		"rating":    map[string]any{"eq": 90, "or": true},
	})
	assert.Equal(t, []int64{2}, ids(docs))
}

func TestFindRelational(t *testing.T) {
	c := newCompiler(seededStore())

	docs := find(t, c, "savedata", map[string]any{"user.username": "peach"})
	assert.Equal(t, []int64{102, 100}, ids(docs))

	docs = find(t, c, "savedata", map[string]any{
		"user.username": "peach",
		"game.title":    map[string]any{"contains": "zelda"},
	})
	assert.Equal(t, []int64{102}, ids(docs))

	docs = find(t, c, "savedata", map[string]any{"tag.name": "completionist"})
	assert.Equal(t, []int64{101, 100}, ids(docs))
}

func TestFindRelationalOr(t *testing.T) {
	c := newCompiler(seededStore())

	docs := find(t, c, "savedata", map[string]any{
		"user.username": map[string]any{"eq": "bowser", "or": true},
		"game.title":    map[string]any{"contains": "zelda", "or": true},
	})
	assert.Equal(t, []int64{102, 101}, ids(docs))
}

func TestRelationalEmptyYieldsNothing(t *testing.T) {
	c := newCompiler(seededStore())

	req := normalize(t, "savedata", map[string]any{"user.username": "nobody"})
	f, err := c.Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Filter{"userID": Cond{OpIn: []any{NeverMatchID}}}, f)

	docs, err := c.Find(context.Background(), req, PageOptions(req))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRelationalResolutionUsesDistinct(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().
		Distinct(gomock.Any(), "users", "id", Filter{"verified": Cond{OpEq: true}}).
		Return([]any{int64(10), int64(12)}, nil)
	store.EXPECT().
		Distinct(gomock.Any(), "games", "id", gomock.Any()).
		Return(nil, nil)

	observer := &TestObserver{}
	c := newCompiler(store).WithObserver(observer)

	f, err := c.Compile(context.Background(), normalize(t, "savedata", map[string]any{
		"user.verified": true,
		"game.rating":   map[string]any{"gt": 99},
	}))
	require.NoError(t, err)
	assert.Equal(t, Filter{
		"userID": Cond{OpIn: []any{int64(10), int64(12)}},
		"gameID": Cond{OpIn: []any{NeverMatchID}},
	}, f)

	ops := observer.GetOperations()
	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.Equal(t, "docstore", op.Component)
		assert.Equal(t, "distinct", op.Operation)
	}
}

func TestRelationalBackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().Distinct(gomock.Any(), "users", "id", gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := newCompiler(store).Compile(context.Background(), normalize(t, "savedata", map[string]any{"user.username": "x"}))
	assert.ErrorIs(t, err, queryerr.ErrBackend)
	assert.False(t, queryerr.IsClientError(err))
}

func TestRawIDMergedLast(t *testing.T) {
	c := newCompiler(seededStore())

	req := normalize(t, "game", map[string]any{"_id": map[string]any{"$in": []any{"a", "b"}}, "rating": 90})
	f, err := c.Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Filter{
		"rating": Cond{OpEq: int64(90)},
		"_id":    map[string]any{"$in": []any{"a", "b"}},
	}, f)
}

func TestLookupFastPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	c := newCompiler(store)

	store.EXPECT().FindOne(gomock.Any(), "savedatas", Filter{"id": int64(42)}).Return(Document{"id": int64(42)}, nil)

	doc, ok, err := c.Lookup(context.Background(), normalize(t, "savedata", map[string]any{"id": 42}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Document{"id": int64(42)}, doc)

	store.EXPECT().FindOne(gomock.Any(), "savedatas", Filter{"_id": "abc"}).Return(nil, nil)

	doc, ok, err = c.Lookup(context.Background(), normalize(t, "savedata", map[string]any{"_id": "abc"}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, doc)
}

func TestLookupNotEligible(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	c := newCompiler(store)

	req := normalize(t, "savedata", map[string]any{"id": 42, "title": "x"})
	_, ok, err := c.Lookup(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, ok)

	store.EXPECT().Find(gomock.Any(), "savedatas", gomock.Any(), gomock.Any()).Return([]Document{}, nil)
	docs, err := c.Find(context.Background(), req, PageOptions(req))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLookupMatchesFullCompilation(t *testing.T) {
	c := newCompiler(seededStore())
	req := normalize(t, "savedata", map[string]any{"id": 101})

	doc, ok, err := c.Lookup(context.Background(), req)
	require.NoError(t, err)
	require.True(t, ok)

	docs, err := c.Find(context.Background(), req, PageOptions(req))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc, docs[0])
}

func TestSortFor(t *testing.T) {
	game, err := registry.Default().Describe("game")
	require.NoError(t, err)

	assert.Equal(t, []SortField{{Field: "id", Desc: true}}, SortFor(game, nil))

	req := normalize(t, "game", map[string]any{"sort": "platformID"})
	assert.Equal(t, []SortField{{Field: "platformIDs"}, {Field: "id", Desc: true}}, SortFor(game, req.Paging.Sort))
}
