// Package config provides configuration management for CortexPuppet
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/normanking/cortexpuppet/internal/retarget"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Feed    FeedConfig      `mapstructure:"feed"`
	Metrics MetricsConfig   `mapstructure:"metrics"`
	Log     LogConfig       `mapstructure:"log"`
	Tuning  retarget.Tuning `mapstructure:"tuning"`
	Avatars []AvatarConfig  `mapstructure:"avatars"`
}

// FeedConfig configures the estimate feed listener
type FeedConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

// LogConfig configures logging
type LogConfig struct {
	Level   string `mapstructure:"level"` // debug, info, warn, error
	Dir     string `mapstructure:"dir"`   // empty disables the log file
	Console bool   `mapstructure:"console"`
}

// AvatarConfig describes an avatar loaded at startup
type AvatarConfig struct {
	URL    string     `mapstructure:"url"`
	Name   string     `mapstructure:"name"`
	Offset [3]float32 `mapstructure:"offset"`
	Yaw    float32    `mapstructure:"yaw"`   // DefaultYaw when absent
	Scale  float32    `mapstructure:"scale"` // 0 keeps the model scale
}

// DefaultYaw turns a model authored facing +Z toward the camera.
const DefaultYaw = float32(math.Pi)

// LoadTimeout bounds a single avatar load started from config.
const LoadTimeout = 2 * time.Minute

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			Addr:    ":8765",
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Addr:    ":9108",
			Enabled: true,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Tuning: retarget.DefaultTuning(),
	}
}

// Load reads configuration from path (or the default locations when empty)
// and the environment. A missing config file is not an error.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := GetConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	// Environment variable overrides
	v.SetEnvPrefix("CORTEXPUPPET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	finish(v, cfg)
	return cfg, nil
}

// finish applies the defaults a plain unmarshal cannot express.
func finish(v *viper.Viper, cfg *Config) {
	cfg.Tuning = cfg.Tuning.Sanitized()

	// An explicit yaw of 0 is kept, so look at the raw entries.
	raw, _ := v.Get("avatars").([]any)
	for i := range cfg.Avatars {
		if i >= len(raw) || !hasKey(cast.ToStringMap(raw[i]), "yaw") {
			cfg.Avatars[i].Yaw = DefaultYaw
		}
	}
}

func hasKey(m map[string]any, key string) bool {
	for k := range m {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// setDefaults registers every key so env overrides reach keys absent from
// the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("feed.addr", cfg.Feed.Addr)
	v.SetDefault("feed.enabled", cfg.Feed.Enabled)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.dir", cfg.Log.Dir)
	v.SetDefault("log.console", cfg.Log.Console)

	for k, val := range tuningKeys(cfg.Tuning) {
		v.SetDefault(k, val)
	}
}

// tuningKeys flattens the tuning section under its mapstructure keys.
func tuningKeys(t retarget.Tuning) map[string]any {
	return map[string]any{
		"tuning.default_dampener":   t.DefaultDampener,
		"tuning.default_lerp":       t.DefaultLerp,
		"tuning.hips_dampener":      t.HipsDampener,
		"tuning.hips_position_lerp": t.HipsPositionLerp,
		"tuning.hips_height_offset": t.HipsHeightOffset,
		"tuning.spine_dampener":     t.SpineDampener,
		"tuning.chest_dampener":     t.ChestDampener,
		"tuning.torso_lerp":         t.TorsoLerp,
		"tuning.limb_dampener":      t.LimbDampener,
		"tuning.limb_lerp":          t.LimbLerp,
		"tuning.neck_dampener":      t.NeckDampener,
		"tuning.blink_blend":        t.BlinkBlend,
		"tuning.viseme_blend":       t.VisemeBlend,
		"tuning.gaze_blend":         t.GazeBlend,
	}
}

// Save writes the configuration to path
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	v := viper.New()
	v.Set("feed", cfg.Feed)
	v.Set("metrics", cfg.Metrics)
	v.Set("log", cfg.Log)
	for k, val := range tuningKeys(cfg.Tuning) {
		v.Set(k, val)
	}
	v.Set("avatars", cfg.Avatars)
	return v.WriteConfigAs(path)
}

// Watch reloads the file at path whenever it changes and hands the new
// configuration to fn. Reload errors are passed to onErr and the previous
// configuration stays in effect.
func Watch(path string, fn func(*Config), onErr func(error)) error {
	v := viper.New()
	if _, err := load(v, path); err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg := DefaultConfig()
		if err := v.Unmarshal(cfg); err != nil {
			if onErr != nil {
				onErr(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		finish(v, cfg)
		fn(cfg)
	})
	v.WatchConfig()
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".cortexpuppet"), nil
}
