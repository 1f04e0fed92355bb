package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REEL2VIDEO_FPS.
const EnvPrefix = "REEL2VIDEO"

// Load layers defaults, an optional reel2video.yaml and REEL2VIDEO_* environment
// variables. An explicit path must exist; the implicit lookup is optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("reel2video")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		OutputWidth:     v.GetInt("width"),
		OutputHeight:    v.GetInt("height"),
		FPS:             v.GetInt("fps"),
		VideoEncoder:    v.GetString("encoder"),
		Quality:         v.GetInt("quality"),
		Preset:          v.GetString("preset"),
		KeepAudio:       v.GetBool("keep-audio"),
		AudioSampleRate: v.GetInt("sample-rate"),
		TempDir:         v.GetString("temp-dir"),
		MinFreeDiskMB:   v.GetInt("min-free-disk-mb"),
		FontPath:        v.GetString("font"),
		ProbeWorkers:    v.GetInt("probe-workers"),
		CommandTimeout:  v.GetDuration("command-timeout"),
		FFmpegPath:      v.GetString("ffmpeg"),
		FFprobePath:     v.GetString("ffprobe"),
		LogLevel:        v.GetString("log-level"),
		ShowStats:       v.GetBool("stats"),
		StatsLog:        v.GetString("stats-log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("width", d.OutputWidth)
	v.SetDefault("height", d.OutputHeight)
	v.SetDefault("fps", d.FPS)
	v.SetDefault("encoder", "")
	v.SetDefault("quality", 0)
	v.SetDefault("preset", d.Preset)
	v.SetDefault("keep-audio", d.KeepAudio)
	v.SetDefault("sample-rate", d.AudioSampleRate)
	v.SetDefault("temp-dir", "")
	v.SetDefault("min-free-disk-mb", d.MinFreeDiskMB)
	v.SetDefault("font", "")
	v.SetDefault("probe-workers", d.ProbeWorkers)
	v.SetDefault("command-timeout", d.CommandTimeout)
	v.SetDefault("ffmpeg", d.FFmpegPath)
	v.SetDefault("ffprobe", d.FFprobePath)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("stats", false)
	v.SetDefault("stats-log", "")
}

// Validate rejects output conventions ffmpeg cannot encode as yuv420p.
func (c *Config) Validate() error {
	if c.OutputWidth <= 0 || c.OutputHeight <= 0 {
		return fmt.Errorf("invalid output size %dx%d", c.OutputWidth, c.OutputHeight)
	}
	if c.OutputWidth%2 != 0 || c.OutputHeight%2 != 0 {
		return fmt.Errorf("output size %dx%d must be even", c.OutputWidth, c.OutputHeight)
	}
	if c.FPS <= 0 || c.FPS > 120 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.ProbeWorkers < 1 {
		c.ProbeWorkers = 1
	}
	if c.AudioSampleRate <= 0 {
		c.AudioSampleRate = DefaultSampleRate
	}
	return nil
}
