// Package cli implements the reel2video command-line interface.
//
// Commands:
//   - build: turn a list of items into a timed template document
//   - render: render a template with user clips into one vertical video
//   - doctor: check ffmpeg, the selected encoder and scratch disk space
//   - version: print build information
//
// Configuration is layered by viper: defaults, reel2video.yaml, REEL2VIDEO_*
// environment variables, then flags. Loggers travel through the command context.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ivlev/reel2video/internal/config"
	"github.com/ivlev/reel2video/internal/logging"
	"github.com/ivlev/reel2video/internal/system"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records build information injected via ldflags.
func SetVersion(v, c, d string) {
	if v != "" {
		version = v
	}
	commit = c
	date = d
}

type cfgKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, cfgKey{}, cfg)
}

// configFromContext returns the loaded config, or defaults outside a command run.
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(cfgKey{}).(*config.Config); ok {
		return cfg
	}
	cfg := config.Default()
	return &cfg
}

// Execute runs the command tree with ctx, which carries cancellation from signals.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		verbose bool
	)
	v := viper.New()

	root := &cobra.Command{
		Use:           "reel2video",
		Short:         "Render vertical video reels from timed scene templates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, cfgPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			cfg.BuildVersion = version

			logger := logging.New(os.Stderr, cfg.LogLevel)
			system.InitResourceLimits(logger)

			ctx := logging.WithLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("reel2video %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	d := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (default: ./reel2video.yaml if present)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	pf.Int("width", d.OutputWidth, "output width in pixels")
	pf.Int("height", d.OutputHeight, "output height in pixels")
	pf.Int("fps", d.FPS, "output frame rate")
	pf.String("encoder", "", "H.264 encoder (default: best available)")
	pf.Int("quality", 0, "quality: CRF for libx264, CQ for nvenc, bitrate/100k for videotoolbox (0 = auto)")
	pf.String("preset", d.Preset, "libx264 preset")
	pf.Bool("keep-audio", d.KeepAudio, "keep clip audio (silence fills clips without audio)")
	pf.String("temp-dir", "", "scratch directory for intermediate clips")
	pf.String("font", "", "TTF/OTF font for text overlays (default: Go fonts)")
	pf.String("ffmpeg", d.FFmpegPath, "ffmpeg binary")
	pf.String("ffprobe", d.FFprobePath, "ffprobe binary")
	pf.Bool("stats", false, "log a performance report after rendering")
	pf.String("stats-log", "", "append performance reports to this file")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newTrimCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reel2video %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
