// Package theme maps time of day and weather into sky theme keys.
//
// Every function in this package is pure: no I/O, no logging and no shared
// mutable state, so callers may use them from any goroutine.
package theme

// SolarSource records where the solar cycle used for classification came from
type SolarSource string

const (
	SolarProvider SolarSource = "provider"
	SolarComputed SolarSource = "computed"
	SolarDefault  SolarSource = "default"

	// SolarFixed marks a result classified with the fixed hour ranges
	SolarFixed SolarSource = "fixed"
)

// Input is the raw material for one theme resolution
type Input struct {
	Minutes int    // minutes since local midnight
	Text    string // provider condition description
	Code    int    // provider condition code, NoCode if absent
	Sunrise string // provider sunrise, e.g. "06:12 AM"
	Sunset  string // provider sunset, e.g. "07:40 PM"
}

// Result is the outcome of Resolve
type Result struct {
	Theme       Key         `json:"theme"`
	Bucket      TimeBucket  `json:"bucket"`
	Condition   Condition   `json:"condition"`
	Solar       SolarCycle  `json:"solar"`
	SolarSource SolarSource `json:"solar_source"`
}

// Resolve runs parser, normalizer, classifier and resolver in order.
// Provider sunrise/sunset strings are preferred; fallback is used when they
// are missing or unreadable.
func Resolve(in Input, fallback SolarCycle) Result {
	solar, ok := SolarFromStrings(in.Sunrise, in.Sunset, fallback)
	source := SolarProvider
	if !ok {
		source = SolarDefault
	}

	return ResolveWithSolar(in.Minutes, in.Text, in.Code, solar, source)
}

// ResolveFixed resolves with the fixed hour ranges, ignoring any sun times
func ResolveFixed(in Input) Result {
	bucket := ClassifyTime(in.Minutes, nil)
	cond := NormalizeCondition(in.Text, in.Code)

	return Result{
		Theme:       ResolveTheme(bucket, cond),
		Bucket:      bucket,
		Condition:   cond,
		SolarSource: SolarFixed,
	}
}

// ResolveWithSolar resolves a theme against an already chosen solar cycle
func ResolveWithSolar(minutes int, text string, code int, solar SolarCycle, source SolarSource) Result {
	bucket := ClassifyTime(minutes, &solar)
	cond := NormalizeCondition(text, code)

	return Result{
		Theme:       ResolveTheme(bucket, cond),
		Bucket:      bucket,
		Condition:   cond,
		Solar:       solar,
		SolarSource: source,
	}
}
