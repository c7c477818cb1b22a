// Package metrics exposes Prometheus metrics for querykit.
//
// *Metrics implements observability.Observer, so it is handed to the
// catalog, hybrid, docstore and igdb components through their
// WithObserver methods (or by the fx modules). Observed operations become:
//
//	queries_total{entity,mode}
//	query_errors_total{entity,category}
//	backend_operation_duration_seconds{component,operation}
//	backend_operation_errors_total{component,operation}
//
// all labelled with service and served at /metrics.
package metrics
