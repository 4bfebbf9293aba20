package sky

import (
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/saaga0h/jeeves-sky/internal/theme"
)

// SolarResolver picks the solar cycle for a classification: provider strings
// first, then sun times computed for the configured coordinates (if enabled),
// then the configured default cycle.
type SolarResolver struct {
	fallback  theme.SolarCycle
	computed  bool
	latitude  float64
	longitude float64
	loc       *time.Location
}

// NewSolarResolver creates a resolver. fallback is used whenever no better
// source yields a valid cycle.
func NewSolarResolver(fallback theme.SolarCycle, computed bool, lat, lon float64, loc *time.Location) *SolarResolver {
	if loc == nil {
		loc = time.Local
	}
	return &SolarResolver{
		fallback:  fallback,
		computed:  computed,
		latitude:  lat,
		longitude: lon,
		loc:       loc,
	}
}

// Fallback returns the configured default cycle
func (s *SolarResolver) Fallback() theme.SolarCycle {
	return s.fallback
}

// Resolve returns the solar cycle for an observation evaluated at now
func (s *SolarResolver) Resolve(obs *Observation, now time.Time) (theme.SolarCycle, theme.SolarSource) {
	if obs != nil {
		if cycle, ok := theme.SolarFromStrings(obs.Sunrise, obs.Sunset, s.fallback); ok {
			return cycle, theme.SolarProvider
		}
	}

	if s.computed {
		if cycle, ok := ComputeSolarCycle(now.In(s.loc), s.latitude, s.longitude); ok {
			return cycle, theme.SolarComputed
		}
	}

	return s.fallback, theme.SolarDefault
}

// ComputeSolarCycle computes sunrise and sunset for the day of t at the given
// coordinates, as minutes in t's location. ok is false during polar day or
// night, when suncalc cannot produce a sunrise before sunset on that date.
func ComputeSolarCycle(t time.Time, lat, lon float64) (theme.SolarCycle, bool) {
	// Noon keeps the calculation on the intended local date
	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
	times := suncalc.GetTimes(noon, lat, lon)

	sunrise, okRise := times[suncalc.Sunrise]
	sunset, okSet := times[suncalc.Sunset]
	if !okRise || !okSet || sunrise.Value.IsZero() || sunset.Value.IsZero() {
		return theme.SolarCycle{}, false
	}

	rise := sunrise.Value.In(t.Location())
	set := sunset.Value.In(t.Location())
	if rise.YearDay() != noon.YearDay() || set.YearDay() != noon.YearDay() {
		return theme.SolarCycle{}, false
	}

	cycle := theme.SolarCycle{
		SunriseMinutes: theme.MinutesOf(rise),
		SunsetMinutes:  theme.MinutesOf(set),
	}
	if !cycle.Valid() {
		return theme.SolarCycle{}, false
	}

	return cycle, true
}

// ParseFallbackCycle builds the default cycle from configured time strings,
// using the 06:00/18:00 cycle if they are unreadable
func ParseFallbackCycle(sunrise, sunset string) (theme.SolarCycle, bool) {
	return theme.SolarFromStrings(sunrise, sunset, theme.DefaultSolarCycle())
}
