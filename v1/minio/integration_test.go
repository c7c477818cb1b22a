package minio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
)

const minioPort nat.Port = "9000/tcp"

func initializeMinio(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "minio/minio:RELEASE.2024-01-16T16-07-38Z",
			Cmd:   []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minio_admin",
				"MINIO_ROOT_PASSWORD": "minio_admin",
			},
			ExposedPorts: []string{string(minioPort)},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(minioPort).WithStartupTimeout(30*time.Second),
				wait.ForHTTP("/minio/health/ready").WithPort(minioPort).WithStartupTimeout(30*time.Second),
			),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, minioPort)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestIntegrationSnapshots(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	endpoint := initializeMinio(ctx, t)

	cfg := Config{
		Connection: ConnectionConfig{
			Endpoint:             endpoint,
			AccessKeyID:          "minio_admin",
			SecretAccessKey:      "minio_admin",
			BucketName:           "snapshots",
			AccessBucketCreation: true,
		},
		Prefix: "exports/",
	}

	var client *Client
	app := fx.New(
		FXModule,
		fx.Supply(cfg),
		fx.Populate(&client),
		fx.NopLogger,
	)
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() { _ = app.Stop(context.Background()) })

	body := []byte(`{"games":[{"id":1,"title":"Chrono Trigger"}]}`)
	require.NoError(t, client.PutSnapshot(ctx, "classics", body))

	got, err := client.GetSnapshot(ctx, "classics")
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(got))

	names, err := client.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"classics"}, names)

	_, err = client.GetSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestIntegrationMissingBucket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	endpoint := initializeMinio(ctx, t)

	client, err := NewClient(Config{Connection: ConnectionConfig{
		Endpoint:        endpoint,
		AccessKeyID:     "minio_admin",
		SecretAccessKey: "minio_admin",
		BucketName:      "absent",
	}})
	require.NoError(t, err)
	assert.ErrorContains(t, client.EnsureBucket(ctx), "create it manually")
}
