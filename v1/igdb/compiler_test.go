package igdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

func normalize(t *testing.T, entity string, params map[string]any) *filter.Request {
	t.Helper()
	req, err := filter.NewNormalizer(registry.Default(), filter.Config{}).Normalize(entity, filter.FromMap(params))
	require.NoError(t, err)
	return req
}

func testCompiler() *Compiler {
	return NewCompiler(NewPlatformTable(map[int64]int64{6: 48, 14: 55}), Config{})
}

func TestCompileTitleSlugVariants(t *testing.T) {
	req := normalize(t, "game", map[string]any{"title": "Mario & Luigi"})

	q, err := testCompiler().Compile(req, PageWindow(req))
	require.NoError(t, err)

	require.NotEmpty(t, q.Where)
	assert.Equal(t,
		`slug = ("mario-and-luigi","mario-and-luigi--1","mario-and-luigi--2","mario-and-luigi--3","mario-and-luigi--4","mario-and-luigi--5","mario-and-luigi--6","mario-and-luigi--7")`,
		q.Where[0])
	assert.Equal(t, "games", q.Endpoint)
	assert.False(t, q.Impossible)
}

func TestCompileUnsluggableTitleIsImpossible(t *testing.T) {
	req := normalize(t, "game", map[string]any{"title": "!!!"})

	q, err := testCompiler().Compile(req, PageWindow(req))
	require.NoError(t, err)
	assert.True(t, q.Impossible)
	assert.NotContains(t, q.String(), `slug = (""`)
}

func TestCompilePlatformRemap(t *testing.T) {
	req := normalize(t, "game", map[string]any{
		"platformID": map[string]any{"in": "6,14"},
		"limit":      10,
	})

	q, err := testCompiler().Compile(req, PageWindow(req))
	require.NoError(t, err)

	assert.Equal(t, []string{"platforms = (48,55)"}, q.Where)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t,
		"fields id,name,slug,platforms,first_release_date,total_rating,genres.name,summary; where platforms = (48,55); limit 10; offset 0; sort id desc;",
		q.String())
}

func TestCompileDefaultScope(t *testing.T) {
	req := normalize(t, "game", map[string]any{"rating": map[string]any{"gte": "80"}})

	q, err := NewCompiler(NewPlatformTable(nil), Config{PlatformAllowList: []int64{48, 49}}).Compile(req, PageWindow(req))
	require.NoError(t, err)

	assert.Equal(t, []string{"total_rating >= 80", "platforms = (48,49)", "version_parent = null"}, q.Where)
}

func TestCompileIncludeVersions(t *testing.T) {
	req := normalize(t, "game", map[string]any{})

	q, err := NewCompiler(nil, Config{PlatformAllowList: []int64{48}, IncludeVersions: true}).Compile(req, PageWindow(req))
	require.NoError(t, err)

	assert.Equal(t, []string{"platforms = (48)"}, q.Where)
}

func TestCompileUnmappedPlatformIsImpossible(t *testing.T) {
	req := normalize(t, "game", map[string]any{"platformID": map[string]any{"in": "99"}})

	q, err := testCompiler().Compile(req, PageWindow(req))
	require.NoError(t, err)
	assert.True(t, q.Impossible)
}

func TestCompileOrDropsImpossibleBranches(t *testing.T) {
	req := normalize(t, "game", map[string]any{
		"platformID": map[string]any{"in": "99", "or": true},
		"summary":    map[string]any{"contains": "plumber", "or": true},
	})

	q, err := testCompiler().Compile(req, PageWindow(req))
	require.NoError(t, err)
	assert.False(t, q.Impossible)
	assert.Contains(t, q.Where, `summary ~ *"plumber"*`)
}

func TestCompilePatterns(t *testing.T) {
	tests := []struct {
		name string
		op   string
		want string
	}{
		{name: "contains", op: "contains", want: `summary ~ *"zel"*`},
		{name: "starts with", op: "startsWith", want: `summary ~ "zel"*`},
		{name: "ends with", op: "endsWith", want: `summary ~ *"zel"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := normalize(t, "game", map[string]any{"summary": map[string]any{tt.op: `ze"l`}})
			q, err := testCompiler().Compile(req, PageWindow(req))
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Where[0])
		})
	}
}

func TestCompileUnsupported(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		params map[string]any
	}{
		{name: "nin", entity: "game", params: map[string]any{"rating": map[string]any{"nin": "1,2"}}},
		{name: "local-only field", entity: "game", params: map[string]any{"downloads": map[string]any{"gt": 5}}},
		{name: "local-only sort", entity: "game", params: map[string]any{"sort": "-downloads"}},
		{name: "internal id", entity: "game", params: map[string]any{"_id": "abc"}},
		{name: "not external", entity: "savedata", params: map[string]any{}},
		{name: "relational", entity: "savedata", params: map[string]any{"user.username": "peach"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := normalize(t, tt.entity, tt.params)
			_, err := testCompiler().Compile(req, PageWindow(req))
			require.Error(t, err)
			assert.ErrorIs(t, err, queryerr.ErrUnsupportedFilter)
		})
	}
}

func TestCompileWindowAndExclusions(t *testing.T) {
	req := normalize(t, "game", map[string]any{"platformID": "6", "sort": "title"})

	q, err := testCompiler().Compile(req, Window{Limit: 7, Offset: 0, ExcludeIDs: []int64{1020, 1942}})
	require.NoError(t, err)

	assert.Equal(t, []string{"platforms = {48}", "id != 1020", "id != 1942"}, q.Where)
	assert.Equal(t, 7, q.Limit)
	assert.Equal(t, "name", q.SortField)
	assert.False(t, q.SortDesc)
}

func TestCompileLimitCapped(t *testing.T) {
	req := normalize(t, "game", map[string]any{})

	q, err := NewCompiler(nil, Config{MaxLimit: 20}).Compile(req, Window{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 20, q.Limit)
}

func TestExpressible(t *testing.T) {
	c := testCompiler()

	assert.True(t, c.Expressible(normalize(t, "game", map[string]any{"title": "zelda"})))
	assert.True(t, c.Expressible(normalize(t, "game", map[string]any{"sort": "-downloads"})))
	assert.False(t, c.Expressible(normalize(t, "game", map[string]any{"downloads": 3})))
	assert.False(t, c.Expressible(normalize(t, "savedata", map[string]any{})))
}
