// Package rabbit announces catalog deletions over RabbitMQ.
//
// catalog.Service.Delete reports every removed entity (cascaded children
// included) through a catalog.DeletionPublisher; *Client implements it by
// publishing a JSON catalog.DeletionEvent to a durable topic exchange with routing
// key "<RoutingKey>.<entity>", e.g. "catalog.deleted.savedata". Publisher
// confirms are enabled and every publish waits for the broker's ack.
//
// # Direct Usage
//
//	client, err := rabbit.NewClient(rabbit.Config{
//		Connection: rabbit.Connection{Host: "localhost", User: "guest", Password: "guest"},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
//	go client.RetryConnection()
//
//	svc := catalog.NewService(normalizer, compiler, orchestrator).WithPublisher(client)
//
// # Consuming
//
// A client with Channel.IsConsumer declares its queue, binds it to every
// deletion ("catalog.deleted.#" on a topic exchange) and optionally routes
// rejected or expired events to a dead-letter queue:
//
//	wg := &sync.WaitGroup{}
//	for msg := range client.Consume(ctx, wg) {
//		ev, err := catalog.DecodeDeletion(msg.Body())
//		if err != nil {
//			_ = msg.NackMsg(false)
//			continue
//		}
//		ctx := rabbit.ExtractTraceContext(ctx, msg.Header())
//		handle(ctx, ev)
//		_ = msg.AckMsg()
//	}
//
// # Observability
//
// Publishes and deliveries are reported to an optional
// observability.Observer under component "rabbit"; trace context is carried
// in W3C headers using the global otel propagator.
package rabbit
