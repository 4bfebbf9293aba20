package executor

import (
	"context"
	"time"
)

// scaledOffset converts scenario seconds to wall-clock time at the given scale
func scaledOffset(targetSeconds, timeScale int) time.Duration {
	if timeScale < 1 {
		timeScale = 1
	}
	return time.Duration(targetSeconds) * time.Second / time.Duration(timeScale)
}

// VirtualAt returns the virtual instant reached targetSeconds into the scenario
func VirtualAt(virtualStart time.Time, targetSeconds int) time.Time {
	return virtualStart.Add(time.Duration(targetSeconds) * time.Second)
}

// WaitUntil sleeps until targetSeconds (scaled) after start, or ctx is done
func WaitUntil(ctx context.Context, start time.Time, targetSeconds, timeScale int) error {
	remaining := time.Until(start.Add(scaledOffset(targetSeconds, timeScale)))
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
