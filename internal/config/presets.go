package config

import (
	"sort"
	"time"
)

const (
	day  = 86400.0
	year = 365.25 * day
)

var Presets = map[string]func(*Config){
	"kepler": func(c *Config) {
		c.Scenario = "kepler"
		c.FixedDt = 600
		c.Threshold = year
		c.RecordEvery = 144
	},
	"inner_planets": func(c *Config) {
		c.Scenario = "inner_planets"
		c.FixedDt = 3600
		c.Threshold = 2 * year
		c.Integrator = "leapfrog"
	},
	"ring": func(c *Config) {
		c.Scenario = "ring"
		c.Bodies = 64
		c.Seed = 7
		c.FixedDt = 3600
		c.Threshold = year
		c.Softening = 1e8
		c.Evaluator = "barneshut"
	},
	"cluster": func(c *Config) {
		c.Scenario = "cluster"
		c.Bodies = 200
		c.Seed = 42
		c.FixedDt = 7200
		c.Threshold = 5 * year
		c.Softening = 5e9
		c.Evaluator = "parallel"
		c.EscapeRadius = 1e13
	},
	"live": func(c *Config) {
		c.Scenario = "inner_planets"
		c.TimestepPolicy = PolicyRealTime
		c.SpeedUp = 10 * day
		c.PacingInterval = 16 * time.Millisecond
		c.Threshold = 10 * year
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
