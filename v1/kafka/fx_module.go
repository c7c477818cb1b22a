package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// FXModule provides the *Client and adds it to the catalog.PublisherGroup, so
// catalog.Service.Delete writes its deletion events to the topic alongside
// any other configured publisher.
//
//	app := fx.New(
//	    catalog.FXModule,
//	    kafka.FXModule,
//	    fx.Supply(kafka.Config{Brokers: []string{"localhost:9092"}}),
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(c *Client) catalog.DeletionPublisher { return c },
			fx.ResultTags(`group:"`+catalog.PublisherGroup+`"`),
		),
	),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies needed to create a client.
type KafkaParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates the client and attaches the optional logger and observer.
func NewClientWithDI(params KafkaParams) (*Client, error) {
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

// KafkaLifecycleParams groups the dependencies of the lifecycle hooks.
type KafkaLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterKafkaLifecycle flushes and closes the producer on stop.
func RegisterKafkaLifecycle(params KafkaLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return params.Client.Close()
		},
	})
}
