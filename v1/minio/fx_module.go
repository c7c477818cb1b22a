package minio

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// FXModule provides the snapshot *Client and checks its bucket on start.
//
//	app := fx.New(
//	    minio.FXModule,
//	    fx.Supply(minio.Config{Connection: minio.ConnectionConfig{Endpoint: "localhost:9000"}}),
//	)
var FXModule = fx.Module("minio",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterMinioLifecycle),
)

// MinioParams groups the dependencies needed to create a client.
type MinioParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates the client and attaches the optional logger and observer.
func NewClientWithDI(params MinioParams) (*Client, error) {
	c, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		c.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		c.WithObserver(params.Observer)
	}
	return c, nil
}

// RegisterMinioLifecycle verifies the bucket when the application starts.
func RegisterMinioLifecycle(lc fx.Lifecycle, c *Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.EnsureBucket(ctx)
		},
	})
}
