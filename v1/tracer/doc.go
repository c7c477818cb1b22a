// Package tracer sets up OpenTelemetry tracing for querykit.
//
// NewClient installs a global tracer provider; the catalog, hybrid,
// docstore and igdb packages start their spans from it through
// otel.Tracer. The helpers here serve code that wants explicit spans or
// needs to carry trace context across a message broker:
//
//	ctx, span := t.StartSpan(ctx, "delete-user")
//	defer span.End()
//	headers := t.GetCarrier(ctx) // attach to the outgoing message
package tracer
