package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a J.E.E.V.E.S. agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration (optional; empty host disables history)
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Location
	Location  string
	Latitude  float64
	Longitude float64
	Timezone  string

	// Sky agent configuration
	WeatherTopics         []string
	ReevaluateIntervalSec int
	MinPublishIntervalMs  int
	FallbackSunrise       string
	FallbackSunset        string
	ComputedSolar         bool
	StyleTablePath        string
	MaxThemeHistory       int

	// Weather provider configuration (empty endpoint disables polling)
	WeatherEndpoint  string
	WeatherAPIKey    string
	WeatherQuery     string
	FetchIntervalSec int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		MQTTUser:      "",
		MQTTPassword:  "",
		MQTTClientID:  "",
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,
		// Postgres defaults
		PostgresHost:               "",
		PostgresPort:               5432,
		PostgresUser:               "jeeves",
		PostgresPassword:           "",
		PostgresDB:                 "jeeves",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     5,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
		ServiceName:                "jeeves-agent",
		HealthPort:                 8080,
		LogLevel:                   "info",
		// Location defaults (Helsinki coordinates)
		Location:  "home",
		Latitude:  60.1695,
		Longitude: 24.9354,
		Timezone:  "Local",
		// Sky agent defaults
		WeatherTopics:         []string{"automation/raw/weather/+"},
		ReevaluateIntervalSec: 60,
		MinPublishIntervalMs:  300000,
		FallbackSunrise:       "06:00",
		FallbackSunset:        "18:00",
		ComputedSolar:         false,
		StyleTablePath:        "",
		MaxThemeHistory:       100,
		// Weather provider defaults
		WeatherEndpoint:  "",
		WeatherAPIKey:    "",
		WeatherQuery:     "Helsinki",
		FetchIntervalSec: 600,
	}
}

// LoadFromEnv loads configuration from environment variables with JEEVES_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("JEEVES_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("JEEVES_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("JEEVES_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("JEEVES_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("JEEVES_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("JEEVES_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("JEEVES_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("JEEVES_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("JEEVES_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("JEEVES_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("JEEVES_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Service configuration
	if v := os.Getenv("JEEVES_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("JEEVES_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("JEEVES_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Location
	if v := os.Getenv("JEEVES_LOCATION"); v != "" {
		c.Location = v
	}
	if v := os.Getenv("JEEVES_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("JEEVES_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
	if v := os.Getenv("JEEVES_TIMEZONE"); v != "" {
		c.Timezone = v
	}

	// Sky agent configuration
	if v := os.Getenv("JEEVES_REEVALUATE_INTERVAL_SEC"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.ReevaluateIntervalSec = interval
		}
	}
	if v := os.Getenv("JEEVES_MIN_PUBLISH_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.MinPublishIntervalMs = ms
		}
	}
	if v := os.Getenv("JEEVES_FALLBACK_SUNRISE"); v != "" {
		c.FallbackSunrise = v
	}
	if v := os.Getenv("JEEVES_FALLBACK_SUNSET"); v != "" {
		c.FallbackSunset = v
	}
	if v := os.Getenv("JEEVES_COMPUTED_SOLAR"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.ComputedSolar = enable
		}
	}
	if v := os.Getenv("JEEVES_STYLE_TABLE"); v != "" {
		c.StyleTablePath = v
	}
	if v := os.Getenv("JEEVES_MAX_THEME_HISTORY"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.MaxThemeHistory = max
		}
	}

	// Weather provider configuration
	if v := os.Getenv("JEEVES_WEATHER_ENDPOINT"); v != "" {
		c.WeatherEndpoint = v
	}
	if v := os.Getenv("JEEVES_WEATHER_API_KEY"); v != "" {
		c.WeatherAPIKey = v
	}
	if v := os.Getenv("JEEVES_WEATHER_QUERY"); v != "" {
		c.WeatherQuery = v
	}
	if v := os.Getenv("JEEVES_FETCH_INTERVAL_SEC"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.FetchIntervalSec = interval
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// RegisterFlags binds every config value to a flag on fs
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname (empty disables theme history)")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check and API HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Location flags
	fs.StringVar(&c.Location, "location", c.Location, "Location name used for polled weather")
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for solar calculation")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for solar calculation")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA timezone for wall-clock classification")

	// Sky agent flags
	fs.StringSliceVar(&c.WeatherTopics, "weather-topics", c.WeatherTopics, "MQTT topics carrying raw weather observations")
	fs.IntVar(&c.ReevaluateIntervalSec, "reevaluate-interval", c.ReevaluateIntervalSec, "Theme re-evaluation interval in seconds")
	fs.IntVar(&c.MinPublishIntervalMs, "min-publish-interval-ms", c.MinPublishIntervalMs, "Minimum time between unchanged theme publishes per location (ms)")
	fs.StringVar(&c.FallbackSunrise, "fallback-sunrise", c.FallbackSunrise, "Sunrise used when no solar data is available")
	fs.StringVar(&c.FallbackSunset, "fallback-sunset", c.FallbackSunset, "Sunset used when no solar data is available")
	fs.BoolVar(&c.ComputedSolar, "computed-solar", c.ComputedSolar, "Compute sunrise/sunset from latitude/longitude when the provider has none")
	fs.StringVar(&c.StyleTablePath, "style-table", c.StyleTablePath, "YAML file overriding the theme style table")
	fs.IntVar(&c.MaxThemeHistory, "max-theme-history", c.MaxThemeHistory, "Maximum theme history entries kept in Redis per location")

	// Weather provider flags
	fs.StringVar(&c.WeatherEndpoint, "weather-endpoint", c.WeatherEndpoint, "Weather API base URL (empty disables polling)")
	fs.StringVar(&c.WeatherAPIKey, "weather-api-key", c.WeatherAPIKey, "Weather API key")
	fs.StringVar(&c.WeatherQuery, "weather-query", c.WeatherQuery, "Weather API location query")
	fs.IntVar(&c.FetchIntervalSec, "fetch-interval", c.FetchIntervalSec, "Weather fetch interval in seconds")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.ReevaluateIntervalSec <= 0 {
		return fmt.Errorf("re-evaluation interval must be positive")
	}
	if c.WeatherEndpoint != "" && c.FetchIntervalSec <= 0 {
		return fmt.Errorf("fetch interval must be positive when a weather endpoint is set")
	}
	if c.MaxThemeHistory <= 0 {
		return fmt.Errorf("max theme history must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresEnabled reports whether theme history should be written to Postgres
func (c *Config) PostgresEnabled() bool {
	return c.PostgresHost != ""
}

// PostgresConnectionString returns a lib/pq keyword/value connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// TimeLocation returns the configured timezone, falling back to the local zone
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
