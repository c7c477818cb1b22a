package catalog

import "context"

// DeletionPublisher announces removed entities to other services.
type DeletionPublisher interface {
	PublishDeletion(ctx context.Context, entity string, ids []any) error
}

// Logger is the logging interface used by the service.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}
