package pgstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is a docstore.Store on PostgreSQL. Every collection is a table of
// (id bigserial, doc jsonb); native filters are translated to SQL over doc.
//
// The active *gorm.DB is held in an atomic pointer and swapped by
// RetryConnection without blocking readers.
type Store struct {
	cfg             Config
	client          atomic.Pointer[gorm.DB]
	shutdownSignal  chan struct{}
	retryChanSignal chan error
	logger          Logger

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewStore connects to PostgreSQL and returns a Store over the connection.
func NewStore(cfg Config) (*Store, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}
	return newStore(cfg, conn), nil
}

// NewWithDB wraps an existing connection, e.g. one opened by a test.
func NewWithDB(cfg Config, db *gorm.DB) *Store {
	return newStore(cfg, db)
}

func newStore(cfg Config, db *gorm.DB) *Store {
	s := &Store{
		cfg:             cfg,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	s.client.Store(db)
	return s
}

// WithLogger attaches a logger for connection events.
func (s *Store) WithLogger(logger Logger) *Store {
	s.logger = logger
	return s
}

// DB returns the current connection.
func (s *Store) DB() *gorm.DB {
	return s.client.Load()
}

// connect opens the connection and applies the pool settings.
func connect(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.dsn()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}

	maxOpen := cfg.ConnectionDetails.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = DefaultMaxOpenConns
	}
	maxIdle := cfg.ConnectionDetails.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = DefaultMaxIdleConns
	}
	maxLifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = DefaultConnMaxLifetime
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	return db, nil
}

// RetryConnection reconnects whenever MonitorConnection reports a failed
// health check. It runs until ctx is done or the store shuts down.
func (s *Store) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-s.shutdownSignal:
			s.logInfo("Stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case err, ok := <-s.retryChanSignal:
			if !ok {
				return
			}
			s.logWarn("PostgreSQL health check failed, reconnecting", err)
			for {
				select {
				case <-s.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
				}

				conn, err := connect(s.cfg)
				if err != nil {
					s.logError("PostgreSQL reconnection failed", err)
					time.Sleep(time.Second)
					continue
				}
				old := s.client.Swap(conn)
				if old != nil {
					if sqlDB, err := old.DB(); err == nil {
						_ = sqlDB.Close()
					}
				}
				s.logInfo("Successfully reconnected to PostgreSQL database", nil)
				continue outerLoop
			}
		}
	}
}

// MonitorConnection pings the database every interval and signals
// RetryConnection on failure.
func (s *Store) MonitorConnection(ctx context.Context, interval time.Duration) {
	defer s.closeRetryChanOnce.Do(func() {
		close(s.retryChanSignal)
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdownSignal:
			s.logInfo("Stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.healthCheck(ctx); err != nil {
				select {
				case s.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

func (s *Store) healthCheck(ctx context.Context) error {
	db := s.DB()
	if db == nil {
		return fmt.Errorf("database client is not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// GracefulShutdown stops the monitoring loops and closes the connection.
func (s *Store) GracefulShutdown() error {
	s.closeShutdownOnce.Do(func() {
		close(s.shutdownSignal)
	})

	db := s.DB()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

func (s *Store) logInfo(msg string, err error) {
	if s.logger != nil {
		s.logger.Info(msg, err)
	}
}

func (s *Store) logWarn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, err)
	}
}

func (s *Store) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, err)
	}
}
