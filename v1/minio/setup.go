package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

// ErrSnapshotNotFound is returned by GetSnapshot for a missing object.
var ErrSnapshotNotFound = errors.New("minio: snapshot not found")

// objectStore is the bucket-scoped subset of MinIO the client needs.
type objectStore interface {
	bucketExists(ctx context.Context) (bool, error)
	makeBucket(ctx context.Context, region string) error
	put(ctx context.Context, key string, body []byte, contentType string) error
	get(ctx context.Context, key string) ([]byte, error)
	list(ctx context.Context, prefix string) ([]string, error)
}

// Client stores catalog snapshots as JSON objects in one bucket.
type Client struct {
	store    objectStore
	cfg      Config
	logger   Logger
	observer observability.Observer
}

// NewClient creates a client for cfg. No request is made until the first
// operation; call EnsureBucket to verify the connection.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty")
	}
	cfg = cfg.withDefaults()

	c, err := minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		store: &bucketStore{client: c, bucket: cfg.Connection.BucketName},
		cfg:   cfg,
	}, nil
}

// WithLogger sets the logger and returns the client.
func (c *Client) WithLogger(l Logger) *Client {
	c.logger = l
	return c
}

// WithObserver sets the observer and returns the client.
func (c *Client) WithObserver(o observability.Observer) *Client {
	c.observer = o
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// EnsureBucket checks that the bucket exists, creating it when
// AccessBucketCreation is set.
func (c *Client) EnsureBucket(ctx context.Context) error {
	bucket := c.cfg.Connection.BucketName

	exists, err := c.store.bucketExists(ctx)
	if err != nil {
		return queryerr.Backend("check bucket", fmt.Errorf("bucket %s: %w", bucket, err))
	}
	if exists {
		return nil
	}
	if !c.cfg.Connection.AccessBucketCreation {
		return queryerr.Backend("check bucket", fmt.Errorf("bucket %s does not exist, please create it manually", bucket))
	}

	if err := c.store.makeBucket(ctx, c.cfg.Connection.Region); err != nil {
		return queryerr.Backend("create bucket", err)
	}
	c.logInfo(ctx, "Created snapshot bucket", map[string]interface{}{
		"bucket": bucket,
		"region": c.cfg.Connection.Region,
	})
	return nil
}

// PutSnapshot stores body under name, replacing an existing snapshot.
func (c *Client) PutSnapshot(ctx context.Context, name string, body []byte) error {
	key, err := c.objectKey(name)
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.store.put(ctx, key, body, DefaultContentType)
	c.observeOperation("put", key, time.Since(start), err, int64(len(body)))
	if err != nil {
		return queryerr.Backend("put snapshot", err)
	}
	return nil
}

// GetSnapshot returns the snapshot stored under name, or ErrSnapshotNotFound.
func (c *Client) GetSnapshot(ctx context.Context, name string) ([]byte, error) {
	key, err := c.objectKey(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.store.get(ctx, key)
	c.observeOperation("get", key, time.Since(start), err, int64(len(body)))
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	case err != nil:
		return nil, queryerr.Backend("get snapshot", err)
	}
	return body, nil
}

// ListSnapshots returns the names of all stored snapshots in sorted order.
func (c *Client) ListSnapshots(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := c.store.list(ctx, c.cfg.Prefix)
	c.observeOperation("list", c.cfg.Prefix, time.Since(start), err, int64(len(keys)))
	if err != nil {
		return nil, queryerr.Backend("list snapshots", err)
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasSuffix(k, DefaultSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(k, c.cfg.Prefix), DefaultSuffix))
	}
	sort.Strings(names)
	return names, nil
}

func (c *Client) objectKey(name string) (string, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return "", errors.New("minio: snapshot name is empty")
	}
	return c.cfg.Prefix + strings.TrimSuffix(name, DefaultSuffix) + DefaultSuffix, nil
}

func (c *Client) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

// bucketStore implements objectStore on a *minio.Client.
type bucketStore struct {
	client *minio.Client
	bucket string
}

func (b *bucketStore) bucketExists(ctx context.Context) (bool, error) {
	return b.client.BucketExists(ctx, b.bucket)
}

func (b *bucketStore) makeBucket(ctx context.Context, region string) error {
	return b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: region})
}

func (b *bucketStore) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (b *bucketStore) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, translateError(err)
	}
	return body, nil
}

func (b *bucketStore) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for info := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		keys = append(keys, info.Key)
	}
	return keys, nil
}

func translateError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrSnapshotNotFound
	}
	return err
}
