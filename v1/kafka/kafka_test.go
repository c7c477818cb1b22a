package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
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

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed++
	return nil
}

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *recordingLogger) Info(string, error, ...map[string]interface{}) {}

func (l *recordingLogger) Warn(msg string, _ error, _ ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(msg string, _ error, _ ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func newTestClient(t *testing.T, cfg Config) (*Client, *fakeWriter) {
	t.Helper()
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = []string{"localhost:9092"}
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	w := &fakeWriter{}
	c.writer = w
	return c, w
}

func withTraceContextPropagator(t *testing.T) {
	t.Helper()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func sampledContext(t *testing.T) (context.Context, trace.SpanContext) {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithSpanContext(context.Background(), sc), sc
}

func header(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultTopic, cfg.Topic)
	assert.Equal(t, DefaultRequiredAcks, cfg.RequiredAcks)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, DefaultMaxWait, cfg.MaxWait)

	cfg = Config{Topic: "deletions", RequiredAcks: 1}.withDefaults()
	assert.Equal(t, "deletions", cfg.Topic)
	assert.Equal(t, 1, cfg.RequiredAcks)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	_, err = NewClient(Config{Brokers: []string{"b:9092"}, CompressionCodec: "brotli"})
	assert.ErrorContains(t, err, "brotli")

	_, err = NewClient(Config{Brokers: []string{"b:9092"}, SASL: SASLConfig{Enabled: true, Mechanism: "GSSAPI"}})
	assert.ErrorContains(t, err, "GSSAPI")

	_, err = NewClient(Config{Brokers: []string{"b:9092"}, TLS: TLSConfig{Enabled: true, CACertPath: "/does/not/exist.pem"}})
	assert.ErrorContains(t, err, "CA cert")

	c, err := NewClient(Config{
		Brokers:          []string{"b:9092"},
		CompressionCodec: "zstd",
		SASL:             SASLConfig{Enabled: true, Mechanism: "SCRAM-SHA-512", Username: "u", Password: "p"},
		TLS:              TLSConfig{Enabled: true, InsecureSkipVerify: true},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, c.Config().Topic)
	assert.NotNil(t, c.transport.SASL)
	assert.True(t, c.transport.TLS.InsecureSkipVerify)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestCompressionCodec(t *testing.T) {
	for name, want := range map[string]kafka.Compression{
		"":       0,
		"gzip":   kafka.Gzip,
		"snappy": kafka.Snappy,
		"lz4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
	} {
		got, err := compressionCodec(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestSASLMechanism(t *testing.T) {
	for _, name := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		m, err := createSASLMechanism(SASLConfig{Mechanism: name, Username: "u", Password: "p"})
		require.NoError(t, err, name)
		assert.Equal(t, name, m.Name())
	}
}

func TestPublishDeletion(t *testing.T) {
	withTraceContextPropagator(t)
	ctx, sc := sampledContext(t)

	obs := &TestObserver{}
	c, w := newTestClient(t, Config{Topic: "deletions"})
	c.WithObserver(obs)

	require.NoError(t, c.PublishDeletion(ctx, "comment", []any{int64(7), int64(8)}))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "comment", string(msg.Key))
	entity, _ := header(msg, HeaderEntity)
	assert.Equal(t, "comment", entity)
	typ, _ := header(msg, HeaderType)
	assert.Equal(t, "catalog.deletion", typ)

	ev, err := catalog.DecodeDeletion(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), int64(8)}, ev.IDs)
	assert.True(t, ev.OccurredAt.Equal(msg.Time))

	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), msg.Headers))
	assert.Equal(t, sc.TraceID(), got.TraceID())

	ops := obs.GetOperations()
	require.Len(t, ops, 1)
	assert.Equal(t, "kafka", ops[0].Component)
	assert.Equal(t, "produce", ops[0].Operation)
	assert.Equal(t, "deletions", ops[0].Resource)
	assert.Equal(t, "comment", ops[0].SubResource)
	assert.Equal(t, int64(len(msg.Value)), ops[0].Size)
}

func TestPublishDeletionSkipsEmpty(t *testing.T) {
	c, w := newTestClient(t, Config{})
	require.NoError(t, c.PublishDeletion(context.Background(), "comment", nil))
	assert.Empty(t, w.messages)
}

func TestPublishDeletionFailure(t *testing.T) {
	obs := &TestObserver{}
	c, w := newTestClient(t, Config{})
	c.WithObserver(obs)
	w.err = errors.New("leader not available")

	err := c.PublishDeletion(context.Background(), "user", []any{int64(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, queryerr.ErrBackend)
	assert.ErrorContains(t, err, "leader not available")

	ops := obs.GetOperations()
	require.Len(t, ops, 1)
	assert.Error(t, ops[0].Error)
}

func TestConsumeDeletions(t *testing.T) {
	withTraceContextPropagator(t)
	traced, sc := sampledContext(t)

	good, err := deletionMessage(traced, catalog.NewDeletionEvent("savedata", []any{int64(100)}))
	require.NoError(t, err)
	good.Offset = 1
	bad := kafka.Message{Offset: 2, Value: []byte("not json")}
	second, err := deletionMessage(context.Background(), catalog.NewDeletionEvent("tag", []any{"x"}))
	require.NoError(t, err)
	second.Offset = 3

	reader := &fakeReader{queue: []kafka.Message{good, bad, second}}
	log := &recordingLogger{}
	c, _ := newTestClient(t, Config{GroupID: "indexer"})
	c.WithLogger(log)
	c.newReader = func() messageReader { return reader }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		mu     sync.Mutex
		events []catalog.DeletionEvent
		traces []trace.TraceID
	)
	err = c.ConsumeDeletions(ctx, func(ctx context.Context, ev catalog.DeletionEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		traces = append(traces, trace.SpanContextFromContext(ctx).TraceID())
		if len(events) == 2 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "savedata", events[0].Entity)
	assert.Equal(t, "tag", events[1].Entity)
	assert.Equal(t, sc.TraceID(), traces[0])
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	assert.True(t, reader.closed)
	assert.Equal(t, []string{"skipping undecodable deletion event"}, log.warns)
}

func TestConsumeDeletionsHandlerError(t *testing.T) {
	msg, err := deletionMessage(context.Background(), catalog.NewDeletionEvent("user", []any{int64(1)}))
	require.NoError(t, err)
	msg.Offset = 42

	reader := &fakeReader{queue: []kafka.Message{msg}}
	c, _ := newTestClient(t, Config{GroupID: "indexer"})
	c.newReader = func() messageReader { return reader }

	boom := errors.New("index unavailable")
	err = c.ConsumeDeletions(context.Background(), func(context.Context, catalog.DeletionEvent) error {
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "offset 42")
	assert.Empty(t, reader.committed)
}

func TestConsumeDeletionsRequiresGroup(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	err := c.ConsumeDeletions(context.Background(), func(context.Context, catalog.DeletionEvent) error { return nil })
	assert.ErrorContains(t, err, "group id")
}

func TestDeletionMessageBody(t *testing.T) {
	msg, err := deletionMessage(context.Background(), catalog.NewDeletionEvent("game", []any{int64(3)}))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "game", body["entity"])
	assert.Contains(t, body, "occurred_at")
}
