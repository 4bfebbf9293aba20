package redis

import "fmt"

// Key construction helpers for sky theme state

// SkyThemeKey returns the key for the current theme of a location (hash)
// Pattern: sky:theme:{location}
func SkyThemeKey(location string) string {
	return fmt.Sprintf("sky:theme:%s", location)
}

// SkyHistoryKey returns the key for recent theme decisions (list, newest first)
// Pattern: sky:history:{location}
func SkyHistoryKey(location string) string {
	return fmt.Sprintf("sky:history:%s", location)
}

// WeatherObservationKey returns the key for the last weather observation (string)
// Pattern: weather:observation:{location}
func WeatherObservationKey(location string) string {
	return fmt.Sprintf("weather:observation:%s", location)
}
