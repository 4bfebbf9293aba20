package theme

import "strings"

// Condition is a canonical weather category
type Condition string

const (
	ConditionClear  Condition = "clear"
	ConditionCloudy Condition = "cloudy"
	ConditionRain   Condition = "rain"
	ConditionStorm  Condition = "storm"
	ConditionSnow   Condition = "snow"
	ConditionFog    Condition = "fog"
)

// AllConditions returns every condition, most severe first
func AllConditions() []Condition {
	return []Condition{
		ConditionStorm,
		ConditionSnow,
		ConditionRain,
		ConditionFog,
		ConditionCloudy,
		ConditionClear,
	}
}

// NoCode marks an observation without a provider condition code
const NoCode = 0

// Rule maps any of its keywords, found anywhere in a description, to a condition
type Rule struct {
	Keywords  []string
	Condition Condition
}

// Matches reports whether the lowercased description contains one of the keywords
func (r Rule) Matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Hazardous conditions come first: the first matching rule wins and later
// rules are never consulted.
func textRules() []Rule {
	return []Rule{
		{Keywords: []string{"thunder", "storm"}, Condition: ConditionStorm},
		{Keywords: []string{"snow", "blizzard", "sleet", "ice", "hail"}, Condition: ConditionSnow},
		{Keywords: []string{"rain", "drizzle", "shower"}, Condition: ConditionRain},
		{Keywords: []string{"fog", "mist", "haze"}, Condition: ConditionFog},
		{Keywords: []string{"cloud", "overcast"}, Condition: ConditionCloudy},
	}
}

// Rules returns the ordered text rules used by NormalizeCondition
func Rules() []Rule {
	return textRules()
}

// codeBand maps provider condition codes at or above Min (and at or below Max
// when Max is set) to a condition
type codeBand struct {
	Min       int
	Max       int
	Condition Condition
}

func codeBands() []codeBand {
	return []codeBand{
		{Min: 1273, Condition: ConditionStorm},
		{Min: 1198, Condition: ConditionRain},
		{Min: 1114, Condition: ConditionSnow},
		{Min: 1003, Max: 1009, Condition: ConditionCloudy},
	}
}

// NormalizeCondition reduces a free-text description and optional numeric
// code to one of the six canonical conditions. Text rules are evaluated
// first, in priority order; the code is only consulted when no text rule
// matches. Anything unrecognised is clear.
func NormalizeCondition(text string, code int) Condition {
	lowered := strings.ToLower(text)

	for _, rule := range textRules() {
		if rule.Matches(lowered) {
			return rule.Condition
		}
	}

	if code != NoCode {
		for _, band := range codeBands() {
			if code < band.Min {
				continue
			}
			if band.Max != 0 && code > band.Max {
				continue
			}
			return band.Condition
		}
	}

	return ConditionClear
}
