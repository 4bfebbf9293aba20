package theme

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoTime is returned by ParseTimeStr for input it cannot read
const NoTime = -1

var timeStrPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(am|pm)?\s*$`)

// ParseTimeStr converts "HH:MM", "H:MM am" or "HH:MM PM" into minutes since
// midnight. Without a meridian the hour is read on a 24-hour clock. Returns
// NoTime when the string does not match or names an impossible time.
func ParseTimeStr(s string) int {
	m := timeStrPattern.FindStringSubmatch(s)
	if m == nil {
		return NoTime
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return NoTime
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil {
		return NoTime
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return NoTime
	}

	return hour*60 + minute
}

// SolarFromStrings builds a solar cycle from provider sunrise/sunset strings.
// When either string is unreadable, or the pair is not a valid cycle, it
// returns fallback and false.
func SolarFromStrings(sunrise, sunset string, fallback SolarCycle) (SolarCycle, bool) {
	sr := ParseTimeStr(sunrise)
	ss := ParseTimeStr(sunset)
	if sr == NoTime || ss == NoTime {
		return fallback, false
	}

	cycle := SolarCycle{SunriseMinutes: sr, SunsetMinutes: ss}
	if !cycle.Valid() {
		return fallback, false
	}

	return cycle, true
}

// FormatMinutes renders minutes since midnight as "HH:MM"; out-of-range
// values are rendered as-is without wrapping
func FormatMinutes(m int) string {
	if m < 0 || m >= MinutesPerDay {
		return strconv.Itoa(m)
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
