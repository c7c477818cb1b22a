package hybrid

import (
	"time"

	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// observeOperation notifies the observer about a backend call if one is configured.
func (o *Orchestrator) observeOperation(operation, resource string, duration time.Duration, err error, size int64) {
	if o.observer != nil {
		o.observer.ObserveOperation(observability.OperationContext{
			Component: "hybrid",
			Operation: operation,
			Resource:  resource,
			Duration:  duration,
			Error:     err,
			Size:      size,
		})
	}
}
