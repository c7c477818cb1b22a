// Package observability defines the hook through which querykit components
// report backend operations (store reads, relational resolutions, external
// searches) to metrics or tracing backends.
//
// Components accept an optional Observer via WithObserver; when none is set
// nothing is reported. The metrics package provides a Prometheus-backed
// implementation.
//
//	compiler := docstore.NewCompiler(reg, store, docstore.Config{}).
//	    WithObserver(observability.ObserverFunc(func(op observability.OperationContext) {
//	        log.Printf("%s.%s on %s took %s", op.Component, op.Operation, op.Resource, op.Duration)
//	    }))
package observability
