// Package kafka publishes catalog deletion events to an Apache Kafka topic
// and consumes them again.
//
// Every deletion performed by catalog.Service.Delete, including cascaded
// dependents, becomes one message per entity. The message key is the entity
// name, the value is the JSON encoding of catalog.DeletionEvent and the
// headers carry the entity, the event type and the W3C trace context of the
// deleting request.
//
// Basic Usage:
//
//	client, err := kafka.NewClient(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		GroupID: "search-indexer",
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.PublishDeletion(ctx, "savedata", []any{int64(100)})
//
//	// Elsewhere, remove deleted records from a downstream index.
//	err = client.ConsumeDeletions(ctx, func(ctx context.Context, ev catalog.DeletionEvent) error {
//		return index.Remove(ctx, ev.Entity, ev.IDs)
//	})
//
// FX Module Integration:
//
//	app := fx.New(
//		catalog.FXModule,
//		kafka.FXModule,
//		fx.Supply(kafkaConfig),
//	)
//
// The client joins the deletion publisher group, so RabbitMQ and Kafka can
// be enabled together.
//
// Configuration:
//
//	KAFKA_BROKERS=localhost:9092,localhost:9093
//	KAFKA_TOPIC=querykit.deletions
//	KAFKA_GROUP_ID=search-indexer
//	KAFKA_COMPRESSION_CODEC=lz4
//	KAFKA_SASL_ENABLED=true
//	KAFKA_SASL_MECHANISM=SCRAM-SHA-512
//
// All methods on Client are safe for concurrent use.
package kafka
