package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/reel2video/internal/config"
	"github.com/ivlev/reel2video/internal/system"
	"github.com/ivlev/reel2video/internal/video"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, the H.264 encoder and scratch space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			w := cmd.OutOrStdout()

			failed := false
			for _, bin := range []string{cfg.FFmpegPath, cfg.FFprobePath} {
				v, err := video.Version(ctx, bin)
				if err != nil {
					report(w, false, bin, err.Error())
					failed = true
					continue
				}
				report(w, true, bin, v)
			}

			encoder := cfg.VideoEncoder
			if encoder == "" {
				encoder = system.GetBestH264Encoder(ctx, cfg.FFmpegPath)
			}
			report(w, true, "encoder", encoder)

			dir := cfg.TempDir
			if dir == "" {
				dir = os.TempDir()
			}
			free, err := system.FreeBytes(ctx, dir)
			switch {
			case err != nil:
				report(w, false, "disk", err.Error())
				failed = true
			case free < uint64(cfg.MinFreeDiskMB)*1024*1024:
				report(w, false, "disk", fmt.Sprintf("%s free in %s, below %d MB floor", system.HumanBytes(free), dir, cfg.MinFreeDiskMB))
				failed = true
			default:
				report(w, true, "disk", fmt.Sprintf("%s free in %s", system.HumanBytes(free), dir))
			}

			if mem, err := system.MemoryReport(ctx); err == nil {
				report(w, true, "memory", fmt.Sprintf("%s available of %s", system.HumanBytes(mem.Available), system.HumanBytes(mem.Total)))
			}

			q := cfg.Quality
			if q == 0 {
				q = config.DefaultQuality(encoder)
			}
			report(w, true, "output", fmt.Sprintf("%dx%d@%d quality %d", cfg.OutputWidth, cfg.OutputHeight, cfg.FPS, q))

			if failed {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
}

func report(w io.Writer, ok bool, name, detail string) {
	mark := "ok  "
	if !ok {
		mark = "FAIL"
	}
	fmt.Fprintf(w, "[%s] %-8s %s\n", mark, name, detail)
}
