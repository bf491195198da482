// Package config loads ls-orrery settings from defaults, an optional config
// file, ORRERY_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/state"
)

// ErrInvalidConfig is returned by Validate and Load.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes environment overrides: ORRERY_SPEED, ORRERY_SERVER_ADDR.
const EnvPrefix = "ORRERY"

// Config holds all runtime settings.
type Config struct {
	LogLevel     string         `mapstructure:"log_level"`
	LogFile      string         `mapstructure:"log_file"`
	TickInterval time.Duration  `mapstructure:"tick_interval"`
	Start        string         `mapstructure:"start"`
	Speed        float64        `mapstructure:"speed"`
	Scene        SceneConfig    `mapstructure:"scene"`
	Server       ServerConfig   `mapstructure:"server"`
	State        StateConfig    `mapstructure:"state"`
	Observer     ObserverConfig `mapstructure:"observer"`
}

// SceneConfig mirrors scene.Config.
type SceneConfig struct {
	Scale            float64 `mapstructure:"scale"`
	Focus            string  `mapstructure:"focus"`
	MoonExaggeration float64 `mapstructure:"moon_exaggeration"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"` // Requests per second per client
	RateBurst   int      `mapstructure:"rate_burst"`
	StreamHz    float64  `mapstructure:"stream_hz"`
}

// StateConfig sizes the state manager's buffers.
type StateConfig struct {
	MaxHistory int `mapstructure:"max_history"`
	MaxEvents  int `mapstructure:"max_events"`
}

// ObserverConfig places the sky view's observer.
type ObserverConfig struct {
	Name   string  `mapstructure:"name"`
	LatDeg float64 `mapstructure:"lat"`
	LonDeg float64 `mapstructure:"lon"`
}

// Default returns the built-in configuration.
func Default() Config {
	st := state.DefaultConfig()
	sc := scene.DefaultConfig()
	return Config{
		LogLevel:     "info",
		TickInterval: 100 * time.Millisecond,
		Speed:        1,
		Scene: SceneConfig{
			Scale:            sc.Scale,
			Focus:            string(sc.Focus),
			MoonExaggeration: sc.MoonExaggeration,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
			RateLimit:   20,
			RateBurst:   40,
			StreamHz:    10,
		},
		State: StateConfig{
			MaxHistory: st.MaxHistoryLen,
			MaxEvents:  st.MaxEvents,
		},
		Observer: ObserverConfig{
			Name:   "Greenwich",
			LatDeg: 51.4769,
			LonDeg: -0.0005,
		},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-level": "log_level",
	"log-file":  "log_file",
	"tick":      "tick_interval",
	"at":        "start",
	"speed":     "speed",
	"focus":     "scene.focus",
	"moon-x":    "scene.moon_exaggeration",
	"addr":      "server.addr",
	"stream-hz": "server.stream_hz",
	"lat":       "observer.lat",
	"lon":       "observer.lon",
}

// Load reads the configuration. An empty path searches for ls-orrery.yaml
// (or .toml/.json) in the working directory and ignores its absence; an
// explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ls-orrery")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("start", d.Start)
	v.SetDefault("speed", d.Speed)
	v.SetDefault("scene.scale", d.Scene.Scale)
	v.SetDefault("scene.focus", d.Scene.Focus)
	v.SetDefault("scene.moon_exaggeration", d.Scene.MoonExaggeration)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("server.stream_hz", d.Server.StreamHz)
	v.SetDefault("state.max_history", d.State.MaxHistory)
	v.SetDefault("state.max_events", d.State.MaxEvents)
	v.SetDefault("observer.name", d.Observer.Name)
	v.SetDefault("observer.lat", d.Observer.LatDeg)
	v.SetDefault("observer.lon", d.Observer.LonDeg)
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval %s must be positive", ErrInvalidConfig, c.TickInterval)
	}
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("%w: speed must be finite", ErrInvalidConfig)
	}
	if _, err := c.StartTime(); err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidConfig, err)
	}
	if err := c.SceneConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return fmt.Errorf("%w: rate limit %v/s burst %d", ErrInvalidConfig, c.Server.RateLimit, c.Server.RateBurst)
	}
	if !(c.Server.StreamHz > 0) || c.Server.StreamHz > 60 {
		return fmt.Errorf("%w: stream_hz %v must be in (0, 60]", ErrInvalidConfig, c.Server.StreamHz)
	}
	if c.State.MaxHistory < 1 || c.State.MaxEvents < 1 {
		return fmt.Errorf("%w: state buffers must hold at least one entry", ErrInvalidConfig)
	}
	if math.Abs(c.Observer.LatDeg) > 90 || math.Abs(c.Observer.LonDeg) > 180 {
		return fmt.Errorf("%w: observer at %v, %v", ErrInvalidConfig, c.Observer.LatDeg, c.Observer.LonDeg)
	}
	return nil
}

// StartTime parses Start. The zero time means "now".
func (c Config) StartTime() (time.Time, error) {
	if strings.TrimSpace(c.Start) == "" || strings.EqualFold(c.Start, "now") {
		return time.Time{}, nil
	}
	return simclock.ParseInstant(c.Start)
}

// SceneConfig converts to scene.Config.
func (c Config) SceneConfig() scene.Config {
	return scene.Config{
		Scale:            c.Scene.Scale,
		Focus:            scene.BodyID(strings.ToLower(c.Scene.Focus)),
		MoonExaggeration: c.Scene.MoonExaggeration,
	}
}

// StateConfig converts to state.Config.
func (c Config) StateConfig() state.Config {
	return state.Config{
		MaxHistoryLen: c.State.MaxHistory,
		MaxEvents:     c.State.MaxEvents,
	}
}
