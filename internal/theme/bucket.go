package theme

import "time"

// MinutesPerDay is the size of the classifier's input domain
const MinutesPerDay = 24 * 60

// TimeBucket is a coarse partition of the day used to pick a lighting theme
type TimeBucket string

const (
	BucketDawn  TimeBucket = "dawn"
	BucketDay   TimeBucket = "day"
	BucketDusk  TimeBucket = "dusk"
	BucketNight TimeBucket = "night"
)

// AllBuckets returns every time bucket in clock order starting at dawn
func AllBuckets() []TimeBucket {
	return []TimeBucket{BucketDawn, BucketDay, BucketDusk, BucketNight}
}

// Window offsets around sunrise and sunset, in minutes
const (
	dawnLeadMinutes  = 45
	dawnTrailMinutes = 60
	duskLeadMinutes  = 60
	duskTrailMinutes = 45
)

// SolarCycle holds sunrise and sunset as minutes since local midnight.
// Sunrise is assumed to be earlier than sunset.
type SolarCycle struct {
	SunriseMinutes int `json:"sunrise_minutes"`
	SunsetMinutes  int `json:"sunset_minutes"`
}

// DefaultSolarCycle returns the 06:00/18:00 cycle used when no real solar data exists
func DefaultSolarCycle() SolarCycle {
	return SolarCycle{SunriseMinutes: 6 * 60, SunsetMinutes: 18 * 60}
}

// Valid reports whether both instants are inside the day and sunrise precedes sunset
func (s SolarCycle) Valid() bool {
	return s.SunriseMinutes >= 0 && s.SunriseMinutes < MinutesPerDay &&
		s.SunsetMinutes >= 0 && s.SunsetMinutes < MinutesPerDay &&
		s.SunriseMinutes < s.SunsetMinutes
}

// ClassifyTime maps minutes since midnight to a time bucket.
//
// Without solar data fixed hour ranges apply: dawn [05,08), day [08,17),
// dusk [17,20), night otherwise. With solar data the dawn window is
// [sunrise-45, sunrise+60] and the dusk window [sunset-60, sunset+45], both
// inclusive, checked before the day window (sunrise+60, sunset-60). Window
// bounds use plain integer arithmetic and are not wrapped around midnight.
func ClassifyTime(minutes int, solar *SolarCycle) TimeBucket {
	if solar == nil {
		return classifyFixed(minutes)
	}

	sr := solar.SunriseMinutes
	ss := solar.SunsetMinutes

	switch {
	case minutes >= sr-dawnLeadMinutes && minutes <= sr+dawnTrailMinutes:
		return BucketDawn
	case minutes >= ss-duskLeadMinutes && minutes <= ss+duskTrailMinutes:
		return BucketDusk
	case minutes > sr+dawnTrailMinutes && minutes < ss-duskLeadMinutes:
		return BucketDay
	default:
		return BucketNight
	}
}

// classifyFixed is the hour-range fallback used when no solar data is known
func classifyFixed(minutes int) TimeBucket {
	hour := minutes / 60

	switch {
	case hour >= 5 && hour < 8:
		return BucketDawn
	case hour >= 8 && hour < 17:
		return BucketDay
	case hour >= 17 && hour < 20:
		return BucketDusk
	default:
		return BucketNight
	}
}

// MinutesOf returns minutes since midnight for t in its own location
func MinutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
