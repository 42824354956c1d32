package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultG              = 6.67408e-11
	DefaultDt             = 3600.0
	DefaultThreshold      = 365.25 * 86400
	DefaultSpeedUp        = 1e6
	DefaultPacingInterval = 10 * time.Millisecond
	DefaultTheta          = 0.5
	DefaultRecordEvery    = 24
	DefaultScenario       = "inner_planets"
)

const (
	PolicyFixed    = "fixed"
	PolicyRealTime = "realtime"
)

var (
	Policies    = []string{PolicyFixed, PolicyRealTime}
	Evaluators  = []string{"direct", "parallel", "barneshut"}
	Integrators = []string{"symplectic_euler", "euler", "leapfrog"}
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Universe string `yaml:"universe,omitempty" toml:"universe"`
	Scenario string `yaml:"scenario,omitempty" toml:"scenario"`
	Bodies   int    `yaml:"bodies,omitempty" toml:"bodies"`
	Seed     int64  `yaml:"seed,omitempty" toml:"seed"`

	TimestepPolicy string        `yaml:"timestep_policy" toml:"timestep_policy"`
	FixedDt        float64       `yaml:"fixed_dt_seconds" toml:"fixed_dt_seconds"`
	SpeedUp        float64       `yaml:"speedup_factor" toml:"speedup_factor"`
	PacingInterval time.Duration `yaml:"pacing_interval" toml:"pacing_interval"`
	Threshold      float64       `yaml:"termination_threshold_seconds" toml:"termination_threshold_seconds"`

	G             float64 `yaml:"gravitational_constant" toml:"gravitational_constant"`
	Softening     float64 `yaml:"softening" toml:"softening"`
	MinSeparation float64 `yaml:"min_separation" toml:"min_separation"`

	Evaluator  string  `yaml:"evaluator" toml:"evaluator"`
	Theta      float64 `yaml:"theta" toml:"theta"`
	Workers    int     `yaml:"workers" toml:"workers"`
	Integrator string  `yaml:"integrator" toml:"integrator"`

	RecordEvery  int     `yaml:"record_every" toml:"record_every"`
	EscapeRadius float64 `yaml:"escape_radius,omitempty" toml:"escape_radius"`

	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:       DefaultScenario,
		TimestepPolicy: PolicyFixed,
		FixedDt:        DefaultDt,
		SpeedUp:        DefaultSpeedUp,
		PacingInterval: DefaultPacingInterval,
		Threshold:      DefaultThreshold,
		G:              DefaultG,
		Evaluator:      "direct",
		Theta:          DefaultTheta,
		Integrator:     "symplectic_euler",
		RecordEvery:    DefaultRecordEvery,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load overlays the file at path onto DefaultConfig. The format is chosen by
// extension: .toml for TOML, anything else is read as YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the file at path onto cfg. Keys absent from the file
// keep their current values.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	var err error
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.Universe == "" && c.Scenario == "":
		return invalid("either universe or scenario must be set")
	case !slices.Contains(Policies, c.TimestepPolicy):
		return invalid("unknown timestep_policy %q", c.TimestepPolicy)
	case !slices.Contains(Evaluators, c.Evaluator):
		return invalid("unknown evaluator %q", c.Evaluator)
	case !slices.Contains(Integrators, c.Integrator):
		return invalid("unknown integrator %q", c.Integrator)
	case c.TimestepPolicy == PolicyFixed && !positive(c.FixedDt):
		return invalid("fixed_dt_seconds must be positive, got %g", c.FixedDt)
	case c.TimestepPolicy == PolicyRealTime && !positive(c.SpeedUp):
		return invalid("speedup_factor must be positive, got %g", c.SpeedUp)
	case c.PacingInterval < 0:
		return invalid("pacing_interval must not be negative, got %s", c.PacingInterval)
	case !positive(c.Threshold):
		return invalid("termination_threshold_seconds must be positive, got %g", c.Threshold)
	case !positive(c.G):
		return invalid("gravitational_constant must be positive, got %g", c.G)
	case c.Softening < 0 || math.IsNaN(c.Softening):
		return invalid("softening must not be negative, got %g", c.Softening)
	case c.MinSeparation < 0 || math.IsNaN(c.MinSeparation):
		return invalid("min_separation must not be negative, got %g", c.MinSeparation)
	case c.Softening > 0 && c.MinSeparation > 0:
		return invalid("softening and min_separation are mutually exclusive")
	case c.Theta < 0 || math.IsNaN(c.Theta):
		return invalid("theta must not be negative, got %g", c.Theta)
	case c.Workers < 0:
		return invalid("workers must not be negative, got %d", c.Workers)
	case c.RecordEvery < 1:
		return invalid("record_every must be at least 1, got %d", c.RecordEvery)
	case c.Bodies < 0:
		return invalid("bodies must not be negative, got %d", c.Bodies)
	}
	return nil
}

// Source names where the initial conditions come from. A universe file wins
// over a scenario.
func (c *Config) Source() string {
	if c.Universe != "" {
		return c.Universe
	}
	return c.Scenario
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
