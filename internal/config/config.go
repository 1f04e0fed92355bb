package config

import "time"

const (
	DefaultWidth         = 1080
	DefaultHeight        = 1920
	DefaultFPS           = 30
	DefaultPreset        = "medium"
	DefaultSampleRate    = 44100
	DefaultMinFreeDiskMB = 512
	DefaultProbeWorkers  = 4
)

type Config struct {
	OutputWidth     int
	OutputHeight    int
	FPS             int
	VideoEncoder    string
	Quality         int
	Preset          string
	KeepAudio       bool
	AudioSampleRate int
	TempDir         string
	MinFreeDiskMB   int
	FontPath        string
	ProbeWorkers    int
	CommandTimeout  time.Duration
	FFmpegPath      string
	FFprobePath     string
	LogLevel        string
	ShowStats       bool
	StatsLog        string
	BuildVersion    string
}

// ClipParams is the framing contract for one scene's normalized clip.
type ClipParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	CropX         float64
	CropY         float64
	CropScale     float64
	SceneIndex    int
}

// Default returns the vertical 1080x1920 @ 30fps output convention.
// VideoEncoder and Quality are left empty for auto-detection.
func Default() Config {
	return Config{
		OutputWidth:     DefaultWidth,
		OutputHeight:    DefaultHeight,
		FPS:             DefaultFPS,
		Preset:          DefaultPreset,
		KeepAudio:       true,
		AudioSampleRate: DefaultSampleRate,
		MinFreeDiskMB:   DefaultMinFreeDiskMB,
		ProbeWorkers:    DefaultProbeWorkers,
		CommandTimeout:  10 * time.Minute,
		FFmpegPath:      "ffmpeg",
		FFprobePath:     "ffprobe",
		LogLevel:        "info",
	}
}

// DefaultQuality picks a quality value matching the encoder's rate-control knob.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // libx264 CRF
	}
}

// Params builds the per-scene framing contract from the output convention.
func (c *Config) Params(sceneIndex int, duration, cropX, cropY, cropScale float64) ClipParams {
	return ClipParams{
		Width:      c.OutputWidth,
		Height:     c.OutputHeight,
		FPS:        c.FPS,
		Duration:   duration,
		CropX:      cropX,
		CropY:      cropY,
		CropScale:  cropScale,
		SceneIndex: sceneIndex,
	}
}
