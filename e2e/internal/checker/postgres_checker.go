package checker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// PostgresChecker runs single-value queries against the transition history
type PostgresChecker struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresChecker opens and pings a lib/pq connection
func NewPostgresChecker(ctx context.Context, connStr string, logger *slog.Logger) (*PostgresChecker, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresChecker{db: db, logger: logger}, nil
}

// CheckQuery runs query, scans one value and matches it against expected
func (p *PostgresChecker) CheckQuery(ctx context.Context, query string, expected interface{}) (bool, string, interface{}) {
	var result interface{}
	if err := p.db.QueryRowContext(ctx, query).Scan(&result); err != nil {
		return false, fmt.Sprintf("query failed: %v", err), nil
	}

	// lib/pq returns text columns as []byte
	if b, ok := result.([]byte); ok {
		result = string(b)
	}

	p.logger.Debug("Postgres check", "query", query, "result", result, "expected", expected)

	if ok, reason := Match(result, expected); !ok {
		return false, reason, result
	}
	return true, "", result
}

// Close closes the database connection
func (p *PostgresChecker) Close() error {
	return p.db.Close()
}
