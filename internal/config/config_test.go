package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/litescript/ls-orrery/internal/scene"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Speed != 1 || cfg.TickInterval != 100*time.Millisecond || cfg.Server.Addr != ":8080" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if got := cfg.SceneConfig(); got != scene.DefaultConfig() {
		t.Errorf("SceneConfig() = %+v, want %+v", got, scene.DefaultConfig())
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orrery.yaml")
	yaml := []byte(`speed: 3600
tick_interval: 250ms
start: "2024-04-08T18:17:00Z"
scene:
  focus: Earth
  moon_exaggeration: 20
server:
  addr: ":9000"
  cors_origins: ["http://localhost:4200"]
`)
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ORRERY_SERVER_ADDR", ":9100")
	t.Setenv("ORRERY_STATE_MAX_EVENTS", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("speed", 1, "")
	flags.String("addr", "", "")
	if err := flags.Parse([]string{"--speed=-86400"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"flag beats file", cfg.Speed, -86400.0},
		{"file beats default", cfg.TickInterval, 250 * time.Millisecond},
		{"env beats file", cfg.Server.Addr, ":9100"},
		{"env beats default", cfg.State.MaxEvents, 7},
		{"unchanged flag keeps lower layers", cfg.Scene.MoonExaggeration, 20.0},
		{"list from file", len(cfg.Server.CORSOrigins), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if cfg.SceneConfig().Focus != scene.Earth {
		t.Errorf("focus = %q, want earth", cfg.SceneConfig().Focus)
	}
	start, err := cfg.StartTime()
	if err != nil || !start.Equal(time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC)) {
		t.Errorf("StartTime() = %v, %v", start, err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("Load() with a missing explicit file succeeded")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ORRERY_SCENE_FOCUS", "jupiter")

	if _, err := Load("", nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick", func(c *Config) { c.TickInterval = 0 }},
		{"NaN speed", func(c *Config) { c.Speed = math.NaN() }},
		{"bad start", func(c *Config) { c.Start = "2023-02-30" }},
		{"zero scale", func(c *Config) { c.Scene.Scale = 0 }},
		{"unknown focus", func(c *Config) { c.Scene.Focus = "pluto" }},
		{"no rate", func(c *Config) { c.Server.RateLimit = 0 }},
		{"stream too fast", func(c *Config) { c.Server.StreamHz = 1000 }},
		{"no events", func(c *Config) { c.State.MaxEvents = 0 }},
		{"observer off the globe", func(c *Config) { c.Observer.LatDeg = 91 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestStartTimeNow(t *testing.T) {
	for _, s := range []string{"", "  ", "now", "NOW"} {
		cfg := Default()
		cfg.Start = s
		if got, err := cfg.StartTime(); err != nil || !got.IsZero() {
			t.Errorf("StartTime(%q) = %v, %v; want zero", s, got, err)
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
