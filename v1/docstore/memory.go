package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store evaluating native filters with Matches.
// It backs tests and the CLI's offline mode. Documents are kept in insertion
// order; returned documents are copies.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Document
	seq         int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Document)}
}

// Load appends documents to a collection, assigning internal IDs to those
// without one.
func (m *MemoryStore) Load(collection string, docs ...Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.insertLocked(collection, d)
	}
}

func (m *MemoryStore) Find(ctx context.Context, collection string, f Filter, opts FindOptions) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []Document
	for _, d := range m.collections[collection] {
		if Matches(d, f) {
			out = append(out, project(d, opts.Projection))
		}
	}
	m.mu.RUnlock()

	if len(opts.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j], opts.Sort)
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(out) {
			return []Document{}, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MemoryStore) FindOne(ctx context.Context, collection string, f Filter) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.collections[collection] {
		if Matches(d, f) {
			return d.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Distinct(ctx context.Context, collection, field string, f Filter) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []any
	for _, d := range m.collections[collection] {
		if !Matches(d, f) {
			continue
		}
		v, ok := d.Get(field)
		if !ok {
			continue
		}
		values := []any{v}
		if list, isList := asList(v); isList {
			values = list
		}
		for _, x := range values {
			if !containsValue(out, x) {
				out = append(out, x)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) Insert(ctx context.Context, collection string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(collection, doc)
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, collection string, f Filter, set Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.collections[collection] {
		if Matches(d, f) {
			for k, v := range set {
				d[k] = v
			}
			return nil
		}
	}

	m.insertLocked(collection, UpsertSeed(f, set))
	return nil
}

// UpsertSeed builds the document an upsert inserts when nothing matches f:
// the equality fields of f overlaid with set.
func UpsertSeed(f Filter, set Document) Document {
	doc := Document{}
	for k, v := range f {
		if k == KeyAnd || k == KeyOr {
			continue
		}
		if c, ok := v.(Cond); ok {
			eq, found := c[OpEq]
			if !found {
				continue
			}
			v = eq
		}
		doc[k] = v
	}
	for k, v := range set {
		doc[k] = v
	}
	return doc
}

func (m *MemoryStore) Delete(ctx context.Context, collection string, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	kept := docs[:0]
	var removed int64
	for _, d := range docs {
		if Matches(d, f) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	m.collections[collection] = kept
	return removed, nil
}

func (m *MemoryStore) insertLocked(collection string, doc Document) {
	d := doc.Clone()
	if _, ok := d["_id"]; !ok {
		m.seq++
		d["_id"] = fmt.Sprintf("%024x", m.seq)
	}
	m.collections[collection] = append(m.collections[collection], d)
}

func project(d Document, fields []string) Document {
	if len(fields) == 0 {
		return d.Clone()
	}
	out := make(Document, len(fields))
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

// less orders documents by the sort fields; missing values sort first.
func less(a, b Document, fields []SortField) bool {
	for _, s := range fields {
		va, okA := a.Get(s.Field)
		vb, okB := b.Get(s.Field)

		var c int
		switch {
		case !okA && !okB:
			c = 0
		case !okA:
			c = -1
		case !okB:
			c = 1
		default:
			var ok bool
			if c, ok = compareValues(va, vb); !ok {
				c = 0
			}
		}
		if c == 0 {
			continue
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}
