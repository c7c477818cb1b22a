package catalog

import (
	"time"

	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// observeOperation notifies the observer about a service call if one is configured.
func (s *Service) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if s.observer != nil {
		s.observer.ObserveOperation(observability.OperationContext{
			Component:   "catalog",
			Operation:   operation,
			Resource:    resource,
			SubResource: subResource,
			Duration:    duration,
			Error:       err,
			Size:        size,
		})
	}
}
