package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.G != 6.67408e-11 {
		t.Errorf("expected G 6.67408e-11, got %g", cfg.G)
	}
	if cfg.TimestepPolicy != PolicyFixed {
		t.Errorf("expected fixed policy, got %s", cfg.TimestepPolicy)
	}
	if cfg.Softening != 0 || cfg.MinSeparation != 0 {
		t.Error("separation policy should default to reject")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no source", func(c *Config) { c.Scenario = "" }},
		{"unknown policy", func(c *Config) { c.TimestepPolicy = "adaptive" }},
		{"unknown evaluator", func(c *Config) { c.Evaluator = "gpu" }},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk4" }},
		{"zero dt", func(c *Config) { c.FixedDt = 0 }},
		{"negative dt", func(c *Config) { c.FixedDt = -1 }},
		{"zero speedup", func(c *Config) { c.TimestepPolicy = PolicyRealTime; c.SpeedUp = 0 }},
		{"negative pacing", func(c *Config) { c.PacingInterval = -time.Second }},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }},
		{"zero G", func(c *Config) { c.G = 0 }},
		{"negative softening", func(c *Config) { c.Softening = -1 }},
		{"negative min separation", func(c *Config) { c.MinSeparation = -1 }},
		{"both separations", func(c *Config) { c.Softening = 1; c.MinSeparation = 1 }},
		{"negative theta", func(c *Config) { c.Theta = -0.1 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"zero record stride", func(c *Config) { c.RecordEvery = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestZeroDtAllowedUnderRealTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimestepPolicy = PolicyRealTime
	cfg.FixedDt = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("fixed dt should be ignored under realtime: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `universe: testdata/4planets.csv
fixed_dt_seconds: 60
pacing_interval: 25ms
softening: 1000
evaluator: barneshut
theta: 0.7
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Universe != "testdata/4planets.csv" || cfg.FixedDt != 60 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.PacingInterval != 25*time.Millisecond {
		t.Errorf("expected 25ms pacing, got %s", cfg.PacingInterval)
	}
	if cfg.Evaluator != "barneshut" || cfg.Theta != 0.7 || cfg.Softening != 1000 {
		t.Errorf("evaluator settings not applied: %+v", cfg)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.G != DefaultG || cfg.Integrator != "symplectic_euler" {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.Source() != cfg.Universe {
		t.Errorf("universe file should win over scenario, got %s", cfg.Source())
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	data := `scenario = "ring"
bodies = 32
timestep_policy = "realtime"
speedup_factor = 86400.0
pacing_interval = "5ms"
integrator = "leapfrog"

[logging]
format = "json"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Scenario != "ring" || cfg.Bodies != 32 {
		t.Errorf("scenario = %s/%d", cfg.Scenario, cfg.Bodies)
	}
	if cfg.TimestepPolicy != PolicyRealTime || cfg.SpeedUp != 86400 {
		t.Errorf("policy = %s x%g", cfg.TimestepPolicy, cfg.SpeedUp)
	}
	if cfg.PacingInterval != 5*time.Millisecond {
		t.Errorf("pacing = %s", cfg.PacingInterval)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg"+ext)
			cfg := GetPreset("ring")
			if err := Save(path, cfg); err != nil {
				t.Fatalf("save failed: %v", err)
			}
			back, err := Load(path)
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
			if *back != *cfg {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, cfg)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("kepler")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scenario != "kepler" {
		t.Errorf("expected scenario kepler, got %s", cfg.Scenario)
	}
	if cfg.G != DefaultG {
		t.Error("preset should start from defaults")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestLoadInto_OverlaysPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("integrator: euler\nfixed_dt_seconds: 120\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("ring")
	if err := LoadInto(path, cfg); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Integrator != "euler" || cfg.FixedDt != 120 {
		t.Errorf("file values not applied: %s %g", cfg.Integrator, cfg.FixedDt)
	}
	if cfg.Scenario != "ring" || cfg.Evaluator != "barneshut" || cfg.Bodies != 64 {
		t.Errorf("preset values lost: %s %s %d", cfg.Scenario, cfg.Evaluator, cfg.Bodies)
	}
}
