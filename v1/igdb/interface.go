package igdb

import "context"

// Record is one decoded result of the external service. Numbers are
// json.Number values.
type Record map[string]any

// Executor runs a text query against an endpoint of the external service.
//
//go:generate mockgen -source=interface.go -destination=mock_executor.go -package=igdb
type Executor interface {
	Execute(ctx context.Context, endpoint, query string) ([]Record, error)
}
