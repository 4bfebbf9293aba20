package sky

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-sky/internal/theme"
	"github.com/saaga0h/jeeves-sky/pkg/postgres"
)

// Schema for theme transitions; applied on start when Postgres is enabled
var historySchema = []string{
	`CREATE TABLE IF NOT EXISTS sky_theme_transitions (
		id            UUID PRIMARY KEY,
		location      TEXT NOT NULL,
		from_theme    TEXT,
		to_theme      TEXT NOT NULL,
		bucket        TEXT NOT NULL,
		condition     TEXT NOT NULL,
		solar_source  TEXT NOT NULL,
		sunrise_min   INTEGER NOT NULL,
		sunset_min    INTEGER NOT NULL,
		observation   TEXT,
		decided_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sky_theme_transitions_location_time
		ON sky_theme_transitions (location, decided_at DESC)`,
}

// Transition is one recorded theme change
type Transition struct {
	ID          uuid.UUID         `json:"id"`
	Location    string            `json:"location"`
	FromTheme   theme.Key         `json:"from_theme,omitempty"`
	ToTheme     theme.Key         `json:"to_theme"`
	Bucket      theme.TimeBucket  `json:"bucket"`
	Condition   theme.Condition   `json:"condition"`
	SolarSource theme.SolarSource `json:"solar_source"`
	DecidedAt   time.Time         `json:"decided_at"`
}

// History persists theme transitions to Postgres
type History struct {
	db     postgres.Client
	logger *slog.Logger
}

// NewHistory creates a history store on top of a connected Postgres client
func NewHistory(db postgres.Client, logger *slog.Logger) *History {
	return &History{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the transitions table if needed
func (h *History) EnsureSchema(ctx context.Context) error {
	if err := h.db.ApplySchema(ctx, historySchema...); err != nil {
		return fmt.Errorf("failed to ensure theme history schema: %w", err)
	}
	return nil
}

// RecordTransition inserts a row for a theme change. from is empty for the
// first theme seen at a location.
func (h *History) RecordTransition(ctx context.Context, from theme.Key, state *ThemeState) (*Transition, error) {
	tr := &Transition{
		ID:          uuid.New(),
		Location:    state.Location,
		FromTheme:   from,
		ToTheme:     state.Theme,
		Bucket:      state.Bucket,
		Condition:   state.Condition,
		SolarSource: state.SolarSource,
		DecidedAt:   state.DecidedAt,
	}

	var fromValue interface{}
	if from != "" {
		fromValue = string(from)
	}

	_, err := h.db.Exec(ctx, `
		INSERT INTO sky_theme_transitions
			(id, location, from_theme, to_theme, bucket, condition, solar_source,
			 sunrise_min, sunset_min, observation, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tr.ID, tr.Location, fromValue, string(tr.ToTheme), string(tr.Bucket),
		string(tr.Condition), string(tr.SolarSource),
		state.Solar.SunriseMinutes, state.Solar.SunsetMinutes,
		state.Observation, tr.DecidedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert theme transition: %w", err)
	}

	h.logger.Debug("Recorded theme transition",
		"location", tr.Location,
		"from", tr.FromTheme,
		"to", tr.ToTheme)

	return tr, nil
}

// Transitions returns the most recent transitions for a location, newest first
func (h *History) Transitions(ctx context.Context, location string, limit int) ([]Transition, error) {
	rows, err := h.db.Query(ctx, `
		SELECT id, location, COALESCE(from_theme, ''), to_theme, bucket, condition,
		       solar_source, decided_at
		FROM sky_theme_transitions
		WHERE location = $1
		ORDER BY decided_at DESC
		LIMIT $2`, location, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query theme transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var tr Transition
		var from, to, bucket, cond, source string
		if err := rows.Scan(&tr.ID, &tr.Location, &from, &to, &bucket, &cond, &source, &tr.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan theme transition: %w", err)
		}
		tr.FromTheme = theme.Key(from)
		tr.ToTheme = theme.Key(to)
		tr.Bucket = theme.TimeBucket(bucket)
		tr.Condition = theme.Condition(cond)
		tr.SolarSource = theme.SolarSource(source)
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate theme transitions: %w", err)
	}

	return out, nil
}
