package executor

import (
	"sort"

	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

// StepKind orders steps that share a time: events first, then waits, then checks
type StepKind int

const (
	StepEvent StepKind = iota
	StepWait
	StepCheck
)

// Step is one entry of a run timeline. Exactly one of Event, Wait or
// Expectation is set, according to Kind.
type Step struct {
	Time        int
	Kind        StepKind
	Layer       string
	Event       scenario.WeatherEvent
	Wait        scenario.WaitPeriod
	Expectation scenario.Expectation
}

// BuildSchedule merges events, waits and expectations into one timeline so
// every check sees the state produced by the events before it and nothing
// after it.
func BuildSchedule(s *scenario.Scenario) []Step {
	var steps []Step
	for _, event := range s.Events {
		steps = append(steps, Step{Time: event.Time, Kind: StepEvent, Event: event})
	}
	for _, wait := range s.Wait {
		steps = append(steps, Step{Time: wait.Time, Kind: StepWait, Wait: wait})
	}
	for layer, exps := range s.Expectations {
		for _, exp := range exps {
			steps = append(steps, Step{Time: exp.Time, Kind: StepCheck, Layer: layer, Expectation: exp})
		}
	}

	sort.SliceStable(steps, func(i, j int) bool {
		a, b := steps[i], steps[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		// map iteration order is random; keep checks deterministic
		return a.Layer < b.Layer
	})
	return steps
}
