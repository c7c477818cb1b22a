package minio

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

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

type fakeStore struct {
	mu      sync.Mutex
	exists  bool
	created string
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{exists: true, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) bucketExists(context.Context) (bool, error) {
	return f.exists, f.err
}

func (f *fakeStore) makeBucket(_ context.Context, region string) error {
	if f.err != nil {
		return f.err
	}
	f.exists = true
	f.created = region
	return nil
}

func (f *fakeStore) put(_ context.Context, key string, body []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.objects[key] = append([]byte(nil), body...)
	f.types[key] = contentType
	return nil
}

func (f *fakeStore) get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return body, nil
}

func (f *fakeStore) list(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newTestClient(t *testing.T, cfg Config) (*Client, *fakeStore) {
	t.Helper()
	cfg.Connection.Endpoint = "localhost:9000"
	c, err := NewClient(cfg)
	require.NoError(t, err)
	store := newFakeStore()
	c.store = store
	return c, store
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorContains(t, err, "endpoint")

	c, err := NewClient(Config{Connection: ConnectionConfig{Endpoint: "localhost:9000"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultBucketName, c.Config().Connection.BucketName)
}

func TestObjectKey(t *testing.T) {
	c, _ := newTestClient(t, Config{Prefix: "exports/"})

	for name, want := range map[string]string{
		"zelda":      "exports/zelda.json",
		"zelda.json": "exports/zelda.json",
		" /a/b/ ":    "exports/a/b.json",
		"2024/march": "exports/2024/march.json",
	} {
		got, err := c.objectKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := c.objectKey("  ")
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	obs := &TestObserver{}
	c, store := newTestClient(t, Config{Prefix: "exports/"})
	c.WithObserver(obs)
	ctx := context.Background()

	body := []byte(`{"games":[{"id":1}]}`)
	require.NoError(t, c.PutSnapshot(ctx, "classics", body))
	assert.Equal(t, DefaultContentType, store.types["exports/classics.json"])

	got, err := c.GetSnapshot(ctx, "classics")
	require.NoError(t, err)
	assert.Equal(t, body, got)

	store.objects["exports/readme.txt"] = []byte("not a snapshot")
	require.NoError(t, c.PutSnapshot(ctx, "2024/rpgs", body))
	names, err := c.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024/rpgs", "classics"}, names)

	ops := obs.GetOperations()
	require.Len(t, ops, 4)
	assert.Equal(t, "minio", ops[0].Component)
	assert.Equal(t, "put", ops[0].Operation)
	assert.Equal(t, DefaultBucketName, ops[0].Resource)
	assert.Equal(t, "exports/classics.json", ops[0].SubResource)
	assert.Equal(t, int64(len(body)), ops[0].Size)
	assert.Equal(t, "get", ops[1].Operation)
	assert.Equal(t, "list", ops[3].Operation)
}

func TestGetSnapshotMissing(t *testing.T) {
	c, _ := newTestClient(t, Config{})

	_, err := c.GetSnapshot(context.Background(), "nothing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.False(t, errors.Is(err, queryerr.ErrBackend))
}

func TestBackendFailures(t *testing.T) {
	c, store := newTestClient(t, Config{})
	store.err = errors.New("connection refused")
	ctx := context.Background()

	assert.ErrorIs(t, c.PutSnapshot(ctx, "x", []byte("{}")), queryerr.ErrBackend)
	_, err := c.GetSnapshot(ctx, "x")
	assert.ErrorIs(t, err, queryerr.ErrBackend)
	_, err = c.ListSnapshots(ctx)
	assert.ErrorIs(t, err, queryerr.ErrBackend)
	assert.ErrorIs(t, c.EnsureBucket(ctx), queryerr.ErrBackend)
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	c, store := newTestClient(t, Config{})
	require.NoError(t, c.EnsureBucket(ctx))

	store.exists = false
	err := c.EnsureBucket(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "create it manually")

	c, store = newTestClient(t, Config{Connection: ConnectionConfig{AccessBucketCreation: true, Region: "eu-central-1"}})
	store.exists = false
	require.NoError(t, c.EnsureBucket(ctx))
	assert.True(t, store.exists)
	assert.Equal(t, "eu-central-1", store.created)
}
