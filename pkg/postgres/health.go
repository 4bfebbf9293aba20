package postgres

import (
	"context"
	"time"
)

// HealthStatus reports reachability and pool usage of the history database
type HealthStatus struct {
	Connected       bool      `json:"connected"`
	Database        string    `json:"database"`
	LatencyMs       int64     `json:"latency_ms"`
	OpenConnections int       `json:"open_connections"`
	InUse           int       `json:"in_use"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// HealthCheck pings the pool. Failures are reported in the status, not as
// an error, so callers can render them.
func (c *PostgresClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Database:  c.config.PostgresDB,
		Timestamp: time.Now(),
	}
	if c.db == nil {
		status.Error = ErrNotConnected.Error()
		return status, nil
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	status.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		status.Error = err.Error()
		return status, nil
	}

	stats := c.db.Stats()
	status.Connected = true
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	return status, nil
}
