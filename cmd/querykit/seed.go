package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
)

// seedMinioPrefix marks a --seed value naming a stored snapshot.
const seedMinioPrefix = "minio:"

// loadSeed reads the seed file at path into store.
func loadSeed(store *docstore.MemoryStore, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed: %w", err)
	}
	return decodeSeed(store, raw, path)
}

// decodeSeed loads a JSON object mapping collection names to document arrays
// into store. Integral numbers become int64, other numbers float64, and
// RFC 3339 strings become time.Time.
func decodeSeed(store *docstore.MemoryStore, raw []byte, source string) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var collections map[string][]map[string]any
	if err := dec.Decode(&collections); err != nil {
		return fmt.Errorf("decoding seed %s: %w", source, err)
	}

	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		docs := make([]docstore.Document, 0, len(collections[name]))
		for _, d := range collections[name] {
			docs = append(docs, docstore.Document(seedValue(d).(map[string]any)))
		}
		store.Load(name, docs...)
	}
	return nil
}

// encodeSnapshot renders docs in the seed format under collection.
func encodeSnapshot(collection string, docs []docstore.Document) ([]byte, error) {
	if docs == nil {
		docs = []docstore.Document{}
	}
	return json.MarshalIndent(map[string][]docstore.Document{collection: docs}, "", "  ")
}

func seedValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.UTC()
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = seedValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = seedValue(e)
		}
		return out
	}
	return v
}
