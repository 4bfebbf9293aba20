package sky

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/jeeves-sky/internal/theme"
)

// Style is the presentation record published alongside a theme key
type Style struct {
	Gradient []string `yaml:"gradient" json:"gradient"`
	Clouds   float64  `yaml:"clouds" json:"clouds"`
	Rain     float64  `yaml:"rain" json:"rain"`
	Snow     float64  `yaml:"snow" json:"snow"`
	Stars    float64  `yaml:"stars" json:"stars"`
	Flash    bool     `yaml:"flash" json:"flash"`
}

// StyleTable maps every theme key to its style
type StyleTable map[theme.Key]Style

// styleFile is the YAML layout of a style table override
type styleFile struct {
	Themes map[string]Style `yaml:"themes"`
}

// DefaultStyleTable returns the built-in style for every theme key
func DefaultStyleTable() StyleTable {
	return StyleTable{
		theme.KeyDayClear:    {Gradient: []string{"#4a90d9", "#87ceeb", "#e0f6ff"}},
		theme.KeyDayCloudy:   {Gradient: []string{"#7a8ea3", "#a9b8c6", "#d8e0e7"}, Clouds: 0.7},
		theme.KeyDayRain:     {Gradient: []string{"#5b6b7a", "#7d8c99", "#a3afb8"}, Clouds: 0.8, Rain: 0.6},
		theme.KeyDayStorm:    {Gradient: []string{"#2f3a45", "#46525e", "#5f6b75"}, Clouds: 1.0, Rain: 0.9, Flash: true},
		theme.KeyDuskClear:   {Gradient: []string{"#2b1e4a", "#d9587a", "#ffb36b"}, Stars: 0.2},
		theme.KeyDuskCloudy:  {Gradient: []string{"#3d3350", "#9a6b7e", "#d2a38c"}, Clouds: 0.6},
		theme.KeyNightClear:  {Gradient: []string{"#02040f", "#0b1a3a", "#1c2c5a"}, Stars: 1.0},
		theme.KeyNightCloudy: {Gradient: []string{"#0d1117", "#1e2630", "#2e3742"}, Clouds: 0.6, Stars: 0.2},
		theme.KeyNightRain:   {Gradient: []string{"#080c12", "#161e28", "#242e3a"}, Clouds: 0.8, Rain: 0.6},
		theme.KeyNightStorm:  {Gradient: []string{"#05070a", "#10151c", "#1b222b"}, Clouds: 1.0, Rain: 0.9, Flash: true},
		theme.KeySnowDay:     {Gradient: []string{"#b8c6d6", "#dde5ee", "#f5f8fb"}, Clouds: 0.6, Snow: 0.8},
		theme.KeySnowNight:   {Gradient: []string{"#1a2230", "#2c3747", "#3e4b5e"}, Clouds: 0.6, Snow: 0.8},
	}
}

// Lookup returns the style for a key, falling back to the day-clear style
func (t StyleTable) Lookup(key theme.Key) Style {
	if style, ok := t[key]; ok {
		return style
	}
	return t[theme.KeyDayClear]
}

// LoadStyleTable reads a YAML override file and merges it over the defaults
func LoadStyleTable(path string) (StyleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style table file: %w", err)
	}
	return ParseStyleTable(data)
}

// ParseStyleTable parses YAML style overrides (useful for testing)
func ParseStyleTable(data []byte) (StyleTable, error) {
	var file styleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse style table YAML: %w", err)
	}

	table := DefaultStyleTable()
	for name, style := range file.Themes {
		key := theme.Key(name)
		if !key.Valid() {
			return nil, fmt.Errorf("unknown theme key in style table: %s", name)
		}
		if err := validateStyle(style); err != nil {
			return nil, fmt.Errorf("theme %s: %w", name, err)
		}
		table[key] = style
	}

	return table, nil
}

func validateStyle(s Style) error {
	if len(s.Gradient) == 0 {
		return fmt.Errorf("gradient must have at least one stop")
	}
	for name, v := range map[string]float64{
		"clouds": s.Clouds,
		"rain":   s.Rain,
		"snow":   s.Snow,
		"stars":  s.Stars,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s opacity %.2f outside [0,1]", name, v)
		}
	}
	return nil
}
