// Package logger provides the structured logger shared by the querykit
// packages, a thin wrapper over go.uber.org/zap.
//
// Every method takes a message, an optional error and optional field maps:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Info, ServiceName: "querykit"})
//	log.Info("query served", nil, map[string]interface{}{"entity": "game", "mode": "external"})
//	log.Error("external query failed", err, map[string]interface{}{"endpoint": "games"})
//
// The *WithContext variants add trace_id and span_id from the OpenTelemetry
// span in ctx when Config.EnableTracing is set.
//
// Packages never depend on *Logger directly. Each declares the small
// Logger interface it needs, which *Logger satisfies.
package logger
