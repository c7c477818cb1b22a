package observability

import "time"

// Observer receives a notification for every backend operation a component
// performs. Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes one finished backend operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "docstore", "igdb" or "hybrid".
	Component string

	// Operation is the action performed, e.g. "find", "distinct", "search".
	Operation string

	// Resource is the primary target, e.g. a collection or endpoint name.
	Resource string

	// SubResource narrows Resource, e.g. a field name. May be empty.
	SubResource string

	Duration time.Duration

	// Error is the failure of the operation, nil on success.
	Error error

	// Size is the number of records returned or affected.
	Size int64

	Metadata map[string]string
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}

// Multi fans one notification out to several observers. Nil observers are skipped.
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multi []Observer

func (m multi) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		o.ObserveOperation(ctx)
	}
}
