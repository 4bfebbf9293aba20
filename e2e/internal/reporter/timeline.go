package reporter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

// TimelineEvent is one line of the run timeline
type TimelineEvent struct {
	Elapsed     float64
	Layer       string
	Description string
	Success     bool // only meaningful when IsCheck
	IsCheck     bool
}

// GenerateTimeline renders a human-readable report of a run
func GenerateTimeline(result *scenario.TestResult, events []TimelineEvent) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== Scenario: %s (%s) ===\n\n", result.Scenario.Name, formatDuration(result.EndTime.Sub(result.StartTime)))

	for _, event := range events {
		icon := "→"
		if event.IsCheck {
			icon = "✓"
			if !event.Success {
				icon = "✗"
			}
		}
		fmt.Fprintf(&sb, "[%7.2fs] %s %-8s: %s\n", event.Elapsed, icon, event.Layer, event.Description)
	}

	sb.WriteString("\n=== Expectations ===\n")

	byLayer := make(map[string][]scenario.ExpectationResult)
	for _, res := range result.Expectations {
		byLayer[res.Layer] = append(byLayer[res.Layer], res)
	}
	layers := make([]string, 0, len(byLayer))
	for layer := range byLayer {
		layers = append(layers, layer)
	}
	sort.Strings(layers)

	for _, layer := range layers {
		fmt.Fprintf(&sb, "Layer: %s\n", layer)
		for _, res := range byLayer[layer] {
			if res.Passed {
				fmt.Fprintf(&sb, "  ✓ %s%s\n", target(res.Expectation), observedTheme(res.ActualPayload))
			} else {
				fmt.Fprintf(&sb, "  ✗ %s: %s\n", target(res.Expectation), res.Reason)
			}
		}
	}

	status := "PASSED"
	if result.FailedCount > 0 {
		status = fmt.Sprintf("FAILED (%d)", result.FailedCount)
	}
	fmt.Fprintf(&sb, "\nPassed: %d  Failed: %d  Status: %s\n", result.PassedCount, result.FailedCount, status)

	return sb.String()
}

func target(exp scenario.Expectation) string {
	switch exp.Kind() {
	case "postgres":
		return "postgres"
	case "redis":
		return exp.RedisKey + "." + exp.RedisField
	default:
		return exp.Topic
	}
}

// observedTheme appends the published theme when the actual payload carries one
func observedTheme(actual interface{}) string {
	payload, ok := actual.(map[string]interface{})
	if !ok {
		return ""
	}
	th, ok := payload["theme"].(string)
	if !ok {
		return ""
	}
	return " [" + th + "]"
}

func formatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	minutes := int(seconds / 60)
	return fmt.Sprintf("%dm %.1fs", minutes, seconds-float64(minutes*60))
}
