package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/reel2video/internal/director"
	"github.com/ivlev/reel2video/internal/engine"
	"github.com/ivlev/reel2video/internal/logging"
	"github.com/ivlev/reel2video/internal/source"
	"github.com/ivlev/reel2video/internal/video"
)

type renderOpts struct {
	clipsDir    string
	bindings    []string
	output      string
	outDir      string
	templateDir string
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{outDir: "output", templateDir: "templates"}

	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template with user clips into one video",
		Long: `Render binds clips to the template's scenes in playback order, normalizes
each clip to the output frame and joins them into one MP4.

Without a template argument the newest template in --templates is used.
Clips from --clips are assigned in file-name order; --bind pins a clip to a
scene key (e.g. --bind location-2/scene-1=beach.mp4) ahead of the rest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.clipsDir, "clips", "", "directory of source clips")
	f.StringArrayVar(&opts.bindings, "bind", nil, "scene=path clip binding, repeatable")
	f.StringVarP(&opts.output, "output", "o", "", "output video path")
	f.StringVar(&opts.outDir, "out-dir", opts.outDir, "directory for generated output names")
	f.StringVar(&opts.templateDir, "templates", opts.templateDir, "directory searched for the newest template")
	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, args []string, opts renderOpts) error {
	logger := logging.FromContext(ctx)
	cfg := configFromContext(ctx)

	path, err := templatePath(args, opts.templateDir)
	if err != nil {
		return err
	}
	tmpl, err := director.ReadTemplate(path)
	if err != nil {
		return err
	}
	logger.Info("template loaded", "path", path, "scenes", len(tmpl.Scenes()), "total", tmpl.TotalDuration)

	clips, err := loadClips(opts)
	if err != nil {
		return err
	}
	overrides, err := loadBindings(tmpl, opts.bindings)
	if err != nil {
		return err
	}
	set, unused, err := source.Bind(tmpl, clips, overrides)
	if err != nil {
		return err
	}
	for _, c := range unused {
		logger.Warn("clip not used", "clip", c.Name)
	}

	encoder := video.DefaultEncoder(ctx, cfg, logger)
	pipeline, err := engine.NewPipeline(cfg, encoder, logger)
	if err != nil {
		return err
	}

	sink := engine.NewChannelSink(32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drainProgress(logger, sink)
	}()

	artifact, err := pipeline.Render(ctx, tmpl, set, sink)
	sink.Close()
	wg.Wait()
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = director.GenerateOutputPath(opts.outDir, tmpl.Name, ".mp4")
	}
	if err := artifact.Save(out); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}
	logger.Info("video saved", "path", out, "duration", fmt.Sprintf("%.1fs", artifact.Duration))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func templatePath(args []string, dir string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	path, err := director.FindLatestTemplate(dir)
	if err != nil {
		return "", fmt.Errorf("no template given and none found in %s: %w", dir, err)
	}
	return path, nil
}

func loadClips(opts renderOpts) ([]*source.Clip, error) {
	if opts.clipsDir == "" {
		if len(opts.bindings) == 0 {
			return nil, errors.New("no clips: pass --clips or --bind")
		}
		return nil, nil
	}
	return source.LoadDir(opts.clipsDir)
}

// loadBindings checks every key against tmpl before reading any clip.
func loadBindings(tmpl *director.Template, bindings []string) (map[string]*source.Clip, error) {
	overrides := make(map[string]*source.Clip, len(bindings))
	for _, b := range bindings {
		key, path, err := source.ParseBinding(b)
		if err != nil {
			return nil, err
		}
		if _, ok := tmpl.SceneByKey(key); !ok {
			return nil, fmt.Errorf("--bind %s: no such scene in template", key)
		}
		clip, err := source.LoadFile(path, 0)
		if err != nil {
			return nil, err
		}
		overrides[key] = clip
	}
	return overrides, nil
}

// drainProgress logs stage changes at info and per-clip ticks at debug.
// The pipeline already logs every event; this reader only summarizes.
func drainProgress(logger *log.Logger, sink *engine.ChannelSink) {
	var last engine.State
	for ev := range sink.C {
		if ev.Stage != last {
			logger.Info("stage", "state", ev.Stage, "percent", fmt.Sprintf("%.0f%%", ev.Percent))
			last = ev.Stage
			continue
		}
		logger.Debug("progress", "clip", fmt.Sprintf("%d/%d", ev.CurrentClip, ev.TotalClips),
			"percent", fmt.Sprintf("%.0f%%", ev.Percent))
	}
	if n := sink.Dropped(); n > 0 {
		logger.Debug("progress events dropped", "count", n)
	}
}
