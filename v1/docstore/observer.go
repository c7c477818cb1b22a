package docstore

import (
	"time"

	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// observeOperation notifies the observer about a store operation if one is configured.
func (c *Compiler) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if c.observer != nil {
		c.observer.ObserveOperation(observability.OperationContext{
			Component:   "docstore",
			Operation:   operation,
			Resource:    resource,
			SubResource: subResource,
			Duration:    duration,
			Error:       err,
			Size:        size,
		})
	}
}
