package mqtt

import (
	"fmt"
	"strings"
)

// Topic constants for the sky theme pipeline
const (
	// Raw weather observations (input)
	TopicRawWeather = "automation/raw/weather/+"

	// Resolved sky theme context (output, retained)
	TopicSkyContext = "automation/context/sky/+"

	// Agent availability (retained, also used as last will)
	TopicStatusBase = "automation/status"

	// Virtual time configuration for scenario testing
	TopicTestTimeConfig = "automation/test/time_config"
)

// RawWeatherTopic constructs a raw weather topic for a location
// Pattern: automation/raw/weather/{location}
func RawWeatherTopic(location string) string {
	return fmt.Sprintf("automation/raw/weather/%s", location)
}

// SkyContextTopic constructs the sky theme context topic for a location
// Pattern: automation/context/sky/{location}
func SkyContextTopic(location string) string {
	return fmt.Sprintf("automation/context/sky/%s", location)
}

// StatusTopic constructs the availability topic for a service
// Pattern: automation/status/{service}
func StatusTopic(service string) string {
	return fmt.Sprintf("%s/%s", TopicStatusBase, service)
}

// LocationFromTopic returns the last topic level, which carries the location
// for every per-location topic. ok is false when the topic has fewer than
// minLevels levels or ends in an empty level.
func LocationFromTopic(topic string, minLevels int) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < minLevels {
		return "", false
	}
	location := parts[len(parts)-1]
	if location == "" {
		return "", false
	}
	return location, true
}
