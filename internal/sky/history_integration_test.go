package sky

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-sky/internal/theme"
	"github.com/saaga0h/jeeves-sky/pkg/postgres"
)

// liveHistory connects to the Postgres named by JEEVES_POSTGRES_HOST and
// skips otherwise
func liveHistory(t *testing.T) *History {
	t.Helper()
	if os.Getenv("JEEVES_POSTGRES_HOST") == "" {
		t.Skip("Integration test - requires PostgreSQL (set JEEVES_POSTGRES_HOST)")
	}

	cfg := testConfig()
	cfg.LoadFromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := postgres.NewClient(cfg, testLogger())
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Disconnect() })

	h := NewHistory(db, testLogger())
	require.NoError(t, h.EnsureSchema(ctx))
	return h
}

func TestHistory_Integration_RoundTrip(t *testing.T) {
	h := liveHistory(t)
	ctx := context.Background()
	location := "it-" + uuid.NewString()[:8]

	first := sampleState(location, theme.KeyDayClear, fixedNow)
	_, err := h.RecordTransition(ctx, "", first)
	require.NoError(t, err)

	second := sampleState(location, theme.KeyDuskClear, fixedNow.Add(time.Hour))
	_, err = h.RecordTransition(ctx, theme.KeyDayClear, second)
	require.NoError(t, err)

	transitions, err := h.Transitions(ctx, location, 10)
	require.NoError(t, err)
	require.Len(t, transitions, 2)

	assert.Equal(t, theme.KeyDuskClear, transitions[0].ToTheme)
	assert.Equal(t, theme.KeyDayClear, transitions[0].FromTheme)
	assert.Equal(t, theme.Key(""), transitions[1].FromTheme)
	assert.True(t, transitions[0].DecidedAt.Equal(second.DecidedAt))
}
