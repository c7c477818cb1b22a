package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

func seededStore() *MemoryStore {
	s := NewMemoryStore()
	s.Load("games",
		Document{"id": int64(1), "title": "Mario & Luigi: Superstar Saga", "platformIDs": []any{int64(6), int64(14)}, "rating": 88.5, "downloads": int64(120)},
		Document{"id": int64(2), "title": "Pokémon Emerald", "platformIDs": []any{int64(14)}, "rating": 90, "downloads": int64(300)},
		Document{"id": int64(3), "title": "The Legend of Zelda", "platformIDs": []any{int64(6)}, "rating": 95, "downloads": int64(50)},
		Document{"id": int64(4), "title": "Mario Kart", "platformIDs": []any{int64(6), int64(14)}, "rating": 80, "downloads": int64(10)},
	)
	s.Load("users",
		Document{"id": int64(10), "username": "peach", "verified": true},
		Document{"id": int64(11), "username": "bowser", "verified": false},
	)
	s.Load("savedatas",
		Document{"id": int64(100), "gameID": int64(1), "userID": int64(10), "title": "100% run", "tags": []any{int64(1), int64(2)}, "createdAt": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Document{"id": int64(101), "gameID": int64(2), "userID": int64(11), "title": "Beat the league", "tags": []any{int64(2)}, "createdAt": time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		Document{"id": int64(102), "gameID": int64(3), "userID": int64(10), "title": "Any%", "tags": []any{}, "createdAt": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	)
	s.Load("tags",
		Document{"id": int64(1), "name": "speedrun"},
		Document{"id": int64(2), "name": "completionist"},
	)
	return s
}

func normalize(t *testing.T, entity string, params map[string]any) *filter.Request {
	t.Helper()
	req, err := filter.NewNormalizer(registry.Default(), filter.Config{}).Normalize(entity, filter.FromMap(params))
	require.NoError(t, err)
	return req
}

func ids(docs []Document) []int64 {
	out := make([]int64, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["id"].(int64))
	}
	return out
}

func find(t *testing.T, c *Compiler, entity string, params map[string]any) []Document {
	t.Helper()
	req := normalize(t, entity, params)
	docs, err := c.Find(context.Background(), req, PageOptions(req))
	require.NoError(t, err)
	return docs
}
