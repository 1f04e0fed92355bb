// Package video drives ffmpeg and ffprobe. Every operation reads and writes
// files; callers own the paths.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ivlev/reel2video/internal/config"
	"github.com/ivlev/reel2video/internal/effects"
	"github.com/ivlev/reel2video/internal/system"
)

// VideoEncoder is the media engine behind the transform stage and the sequencer.
type VideoEncoder interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	// Trim re-encodes [in, out) of src into dst.
	Trim(ctx context.Context, src, dst string, in, out float64) error
	// Frame applies the framing filter and pins frame rate, pixel format,
	// duration and audio layout.
	Frame(ctx context.Context, src, dst string, params config.ClipParams, filter string, hasAudio bool) error
	// Overlay composites a full-frame PNG over every frame of src.
	Overlay(ctx context.Context, src, overlayPNG, dst string) error
	// Concatenate joins same-format clips with stream copy. manifest is the
	// path of the concat list to write.
	Concatenate(ctx context.Context, clips []string, manifest, dst string) error
}

// FFmpegEncoder shells out to the ffmpeg binaries.
type FFmpegEncoder struct {
	FFmpegPath  string
	FFprobePath string
	Codec       string
	Quality     int
	Preset      string
	KeepAudio   bool
	SampleRate  int
	Timeout     time.Duration
	Logger      *log.Logger
}

var (
	defaultOnce    sync.Once
	defaultEncoder *FFmpegEncoder
)

// DefaultEncoder returns the process-wide encoder. The hardware encoder is
// detected on first use only; later calls ignore their arguments.
func DefaultEncoder(ctx context.Context, cfg *config.Config, logger *log.Logger) *FFmpegEncoder {
	defaultOnce.Do(func() {
		defaultEncoder = NewFFmpegEncoder(ctx, cfg, logger)
	})
	return defaultEncoder
}

// NewFFmpegEncoder builds an encoder from cfg, detecting the codec when unset.
func NewFFmpegEncoder(ctx context.Context, cfg *config.Config, logger *log.Logger) *FFmpegEncoder {
	if logger == nil {
		logger = log.Default()
	}
	codec := cfg.VideoEncoder
	if codec == "" {
		codec = system.GetBestH264Encoder(ctx, cfg.FFmpegPath)
		logger.Info("video encoder detected", "encoder", codec)
	}
	quality := cfg.Quality
	if quality <= 0 {
		quality = config.DefaultQuality(codec)
	}
	e := &FFmpegEncoder{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Codec:       codec,
		Quality:     quality,
		Preset:      cfg.Preset,
		KeepAudio:   cfg.KeepAudio,
		SampleRate:  cfg.AudioSampleRate,
		Timeout:     cfg.CommandTimeout,
		Logger:      logger,
	}
	if e.FFmpegPath == "" {
		e.FFmpegPath = "ffmpeg"
	}
	if e.FFprobePath == "" {
		e.FFprobePath = "ffprobe"
	}
	if e.SampleRate <= 0 {
		e.SampleRate = config.DefaultSampleRate
	}
	return e
}

func (e *FFmpegEncoder) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	out, err := e.run(ctx, "probe", e.FFprobePath,
		"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	return parseProbe(out)
}

func (e *FFmpegEncoder) Trim(ctx context.Context, src, dst string, in, out float64) error {
	_, err := e.run(ctx, "trim", e.FFmpegPath, e.trimArgs(src, dst, in, out)...)
	return err
}

func (e *FFmpegEncoder) Frame(ctx context.Context, src, dst string, p config.ClipParams, filter string, hasAudio bool) error {
	_, err := e.run(ctx, "frame", e.FFmpegPath, e.frameArgs(src, dst, p, filter, hasAudio)...)
	return err
}

func (e *FFmpegEncoder) Overlay(ctx context.Context, src, overlayPNG, dst string) error {
	_, err := e.run(ctx, "overlay", e.FFmpegPath, e.overlayArgs(src, overlayPNG, dst)...)
	return err
}

func (e *FFmpegEncoder) Concatenate(ctx context.Context, clips []string, manifest, dst string) error {
	if len(clips) == 0 {
		return errors.New("nothing to concatenate")
	}
	if err := WriteManifest(manifest, clips); err != nil {
		return err
	}
	_, err := e.run(ctx, "concat", e.FFmpegPath,
		"-y", "-hide_banner",
		"-f", "concat", "-safe", "0", "-i", manifest,
		"-c", "copy", "-movflags", "+faststart",
		dst,
	)
	return err
}

// WriteManifest writes a concat demuxer list with absolute, quoted paths.
func WriteManifest(path string, clips []string) error {
	var b strings.Builder
	for _, c := range clips {
		abs, err := filepath.Abs(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func (e *FFmpegEncoder) trimArgs(src, dst string, in, out float64) []string {
	args := []string{
		"-y", "-hide_banner",
		"-ss", seconds(in),
		"-i", src,
		"-t", seconds(out - in),
		"-map", "0:v:0",
	}
	if e.KeepAudio {
		args = append(args, "-map", "0:a:0?", "-c:a", "aac", "-b:a", "192k")
	} else {
		args = append(args, "-an")
	}
	args = append(args, "-c:v", e.Codec, "-pix_fmt", "yuv420p")
	args = append(args, e.qualityArgs()...)
	return append(args, dst)
}

func (e *FFmpegEncoder) frameArgs(src, dst string, p config.ClipParams, filter string, hasAudio bool) []string {
	args := []string{"-y", "-hide_banner", "-i", src}
	silence := e.KeepAudio && !hasAudio
	if silence {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", e.SampleRate))
	}

	args = append(args, "-vf", filter, "-map", "0:v:0")
	switch {
	case !e.KeepAudio:
		args = append(args, "-an")
	case silence:
		args = append(args, "-map", "1:a:0")
	default:
		args = append(args, "-map", "0:a:0", "-af", effects.AudioPadFilter(e.SampleRate, p.Duration))
	}

	args = append(args,
		"-t", seconds(p.Duration),
		"-r", fmt.Sprintf("%d", p.FPS),
		"-c:v", e.Codec, "-pix_fmt", "yuv420p",
	)
	args = append(args, e.qualityArgs()...)
	if e.KeepAudio {
		args = append(args, "-c:a", "aac", "-ac", "2", "-ar", fmt.Sprintf("%d", e.SampleRate), "-b:a", "192k")
	}
	return append(args, "-video_track_timescale", "90000", dst)
}

func (e *FFmpegEncoder) overlayArgs(src, overlayPNG, dst string) []string {
	args := []string{
		"-y", "-hide_banner",
		"-i", src,
		"-i", overlayPNG,
		"-filter_complex", effects.OverlayFilter(),
		"-map", "[v]",
	}
	if e.KeepAudio {
		args = append(args, "-map", "0:a?", "-c:a", "copy")
	}
	args = append(args, "-c:v", e.Codec, "-pix_fmt", "yuv420p")
	args = append(args, e.qualityArgs()...)
	return append(args, "-video_track_timescale", "90000", dst)
}

func (e *FFmpegEncoder) qualityArgs() []string {
	switch e.Codec {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on many builds; drive it by bitrate.
		return []string{"-b:v", fmt.Sprintf("%dk", e.Quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", e.Quality)}
	default:
		preset := e.Preset
		if preset == "" {
			preset = config.DefaultPreset
		}
		return []string{"-crf", fmt.Sprintf("%d", e.Quality), "-preset", preset}
	}
}

// run executes one binary, keeping the stderr tail for the error.
func (e *FFmpegEncoder) run(ctx context.Context, step, bin string, args ...string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderr, limit: maxStderrBytes})

	e.logger().Debug("exec", "step", step, "cmd", bin+" "+strings.Join(args, " "))
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		e.logger().Warn("command failed", "step", step, "exit_code", exitCode, "duration_ms", elapsed.Milliseconds())
		return nil, &CommandError{Step: step, ExitCode: exitCode, Stderr: stderr.String(), Err: err}
	}
	e.logger().Debug("command done", "step", step, "duration_ms", elapsed.Milliseconds())
	return stdout.Bytes(), nil
}

func (e *FFmpegEncoder) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

// Version returns the first line of `bin -version`.
func Version(ctx context.Context, bin string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

func seconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
