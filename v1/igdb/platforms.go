package igdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// Platforms translates platform identifiers between the local and the
// external ID spaces.
type Platforms interface {
	ToExternal(local int64) (int64, bool)
	FromExternal(external int64) (int64, bool)
}

// PlatformTable is an in-memory Platforms implementation. It is safe for
// concurrent use and can be reloaded while serving.
type PlatformTable struct {
	mu         sync.RWMutex
	toExternal map[int64]int64
	toLocal    map[int64]int64
}

// NewPlatformTable builds a table from local -> external pairs.
func NewPlatformTable(localToExternal map[int64]int64) *PlatformTable {
	t := &PlatformTable{}
	t.Replace(localToExternal)
	return t
}

// ToExternal returns the external ID of a local platform.
func (t *PlatformTable) ToExternal(local int64) (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.toExternal[local]
	return v, ok
}

// FromExternal returns the local ID of an external platform.
func (t *PlatformTable) FromExternal(external int64) (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.toLocal[external]
	return v, ok
}

// Len returns the number of mapped platforms.
func (t *PlatformTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.toExternal)
}

// Replace swaps the table contents.
func (t *PlatformTable) Replace(localToExternal map[int64]int64) {
	toExternal := make(map[int64]int64, len(localToExternal))
	toLocal := make(map[int64]int64, len(localToExternal))
	for l, e := range localToExternal {
		toExternal[l] = e
		toLocal[e] = l
	}

	t.mu.Lock()
	t.toExternal, t.toLocal = toExternal, toLocal
	t.mu.Unlock()
}

// LoadPlatformTable builds the table from the platform entity's documents:
// each platform with an igdbID maps its identity to that ID.
func LoadPlatformTable(ctx context.Context, reg *registry.Registry, store docstore.Store) (*PlatformTable, error) {
	t := NewPlatformTable(nil)
	if err := t.Load(ctx, reg, store); err != nil {
		return nil, err
	}
	return t, nil
}

// Load replaces the table contents with the pairs read from store.
func (t *PlatformTable) Load(ctx context.Context, reg *registry.Registry, store docstore.Store) error {
	desc, err := reg.Describe(registry.EntityPlatform)
	if err != nil {
		return err
	}
	idField, ok := desc.Field(desc.IdentityField)
	if !ok {
		return fmt.Errorf("igdb: platform identity field %q not declared", desc.IdentityField)
	}
	extField, ok := desc.Field("igdbID")
	if !ok {
		return fmt.Errorf("igdb: platform entity has no igdbID field")
	}

	docs, err := store.Find(ctx, desc.Collection, docstore.Filter{}, docstore.FindOptions{
		Projection: []string{idField.Store(), extField.Store()},
	})
	if err != nil {
		return queryerr.Backend("load platforms", err)
	}

	pairs := make(map[int64]int64, len(docs))
	for _, d := range docs {
		local, okL := toInt64(d[idField.Store()])
		external, okE := toInt64(d[extField.Store()])
		if okL && okE {
			pairs[local] = external
		}
	}
	t.Replace(pairs)
	return nil
}

func toInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	n, err := filter.Cast(v, registry.Number)
	if err != nil {
		return 0, false
	}
	i, ok := n.(int64)
	return i, ok
}
