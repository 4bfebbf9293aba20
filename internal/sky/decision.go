package sky

import (
	"time"

	"github.com/saaga0h/jeeves-sky/internal/theme"
)

// ThemeState is the resolved sky theme for a location at one instant
type ThemeState struct {
	Location    string            `json:"location"`
	Theme       theme.Key         `json:"theme"`
	Bucket      theme.TimeBucket  `json:"bucket"`
	Condition   theme.Condition   `json:"condition"`
	Solar       theme.SolarCycle  `json:"solar"`
	SolarSource theme.SolarSource `json:"solar_source"`
	Observation string            `json:"observation_id,omitempty"`
	DecidedAt   time.Time         `json:"decided_at"`
}

// Decide resolves the theme for an observation at now. now is converted to
// loc before its wall-clock minutes are taken.
func Decide(obs *Observation, now time.Time, loc *time.Location, solar *SolarResolver) *ThemeState {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)

	cycle, source := solar.Resolve(obs, local)
	result := theme.ResolveWithSolar(theme.MinutesOf(local), obs.Text, obs.Code, cycle, source)

	return &ThemeState{
		Location:    obs.Location,
		Theme:       result.Theme,
		Bucket:      result.Bucket,
		Condition:   result.Condition,
		Solar:       result.Solar,
		SolarSource: result.SolarSource,
		Observation: obs.ID.String(),
		DecidedAt:   now,
	}
}
