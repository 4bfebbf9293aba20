package theme

// Key identifies a sky presentation (gradient, overlay opacities)
type Key string

const (
	KeyDayClear    Key = "day-clear"
	KeyDayCloudy   Key = "day-cloudy"
	KeyDayRain     Key = "day-rain"
	KeyDayStorm    Key = "day-storm"
	KeyDuskClear   Key = "dusk-clear"
	KeyDuskCloudy  Key = "dusk-cloudy"
	KeyNightClear  Key = "night-clear"
	KeyNightCloudy Key = "night-cloudy"
	KeyNightRain   Key = "night-rain"
	KeyNightStorm  Key = "night-storm"
	KeySnowDay     Key = "snow-day"
	KeySnowNight   Key = "snow-night"
)

// AllKeys returns the twelve theme keys
func AllKeys() []Key {
	return []Key{
		KeyDayClear, KeyDayCloudy, KeyDayRain, KeyDayStorm,
		KeyDuskClear, KeyDuskCloudy,
		KeyNightClear, KeyNightCloudy, KeyNightRain, KeyNightStorm,
		KeySnowDay, KeySnowNight,
	}
}

// Valid reports whether k is one of the twelve theme keys
func (k Key) Valid() bool {
	for _, known := range AllKeys() {
		if k == known {
			return true
		}
	}
	return false
}

// ResolveTheme combines a time bucket and a weather condition into a theme key.
//
// Precedence is snow > storm > rain > fog/cloudy > clear. Snow, storm and rain
// only distinguish night from everything else; fog, cloudy and clear give
// dawn and dusk their own dusk variant.
func ResolveTheme(bucket TimeBucket, cond Condition) Key {
	night := bucket == BucketNight
	twilight := bucket == BucketDawn || bucket == BucketDusk

	switch cond {
	case ConditionSnow:
		if night {
			return KeySnowNight
		}
		return KeySnowDay
	case ConditionStorm:
		if night {
			return KeyNightStorm
		}
		return KeyDayStorm
	case ConditionRain:
		if night {
			return KeyNightRain
		}
		return KeyDayRain
	case ConditionFog, ConditionCloudy:
		switch {
		case night:
			return KeyNightCloudy
		case twilight:
			return KeyDuskCloudy
		default:
			return KeyDayCloudy
		}
	default:
		switch {
		case night:
			return KeyNightClear
		case twilight:
			return KeyDuskClear
		default:
			return KeyDayClear
		}
	}
}
