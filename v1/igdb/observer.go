package igdb

import (
	"time"

	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// observeOperation notifies the observer about an external request if one is configured.
func (c *Client) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if c.observer != nil {
		c.observer.ObserveOperation(observability.OperationContext{
			Component:   "igdb",
			Operation:   operation,
			Resource:    resource,
			SubResource: subResource,
			Duration:    duration,
			Error:       err,
			Size:        size,
		})
	}
}
