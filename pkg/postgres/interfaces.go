package postgres

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotConnected is returned by every query method before Connect succeeds
var ErrNotConnected = errors.New("postgres client not connected")

// Client is the Postgres surface used for theme history
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error

	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// ApplySchema runs idempotent DDL statements in one transaction
	ApplySchema(ctx context.Context, statements ...string) error

	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
