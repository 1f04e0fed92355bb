package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/reel2video/internal/director"
	"github.com/ivlev/reel2video/internal/effects"
	"github.com/ivlev/reel2video/internal/logging"
)

type trimOpts struct {
	in, out float64
	zoom    float64
	focus   string
	origin  string
	output  string
}

func newTrimCmd() *cobra.Command {
	opts := trimOpts{zoom: 1}

	cmd := &cobra.Command{
		Use:   "trim <template> <scene-key>",
		Short: "Set a scene's trim window and crop",
		Long: `Trim stores which part of the user's clip plays in a scene and how it is
framed. --focus takes the point to keep in view (center fractions, as a
drag-to-focus cropper reports them); --origin takes the crop window's
top-left fractions directly. Trimming marks the scene filled.`,
		Example: `  reel2video trim templates/paris.yaml location-2/scene-1 --in 1.5 --out 6 --zoom 2 --focus 0.5,0.3`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.FromContext(cmd.Context())
			path, key := args[0], args[1]

			tmpl, err := director.ReadTemplate(path)
			if err != nil {
				return err
			}
			sc, ok := tmpl.SceneByKey(key)
			if !ok {
				return fmt.Errorf("scene %q not found in %s", key, path)
			}

			trim, err := opts.trimData()
			if err != nil {
				return err
			}
			sc.TrimData = trim
			if err := director.ValidateScene(sc); err != nil {
				return err
			}
			if err := tmpl.FillScene(key, trim); err != nil {
				return err
			}

			out := opts.output
			if out == "" {
				out = path
			}
			if err := director.WriteTemplate(tmpl, out); err != nil {
				return err
			}
			logger.Info("scene trimmed", "scene", key, "in", trim.InTime, "out", trim.OutTime,
				"zoom", trim.CropScale, "origin", fmt.Sprintf("%.3f,%.3f", trim.CropX, trim.CropY))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.in, "in", 0, "clip time where the scene starts (seconds)")
	f.Float64Var(&opts.out, "out", 0, "clip time where the scene ends (seconds)")
	f.Float64Var(&opts.zoom, "zoom", opts.zoom, "crop scale, 1 fits the whole frame")
	f.StringVar(&opts.focus, "focus", "", "point to keep centered, as x,y fractions")
	f.StringVar(&opts.origin, "origin", "", "crop window top-left, as x,y fractions")
	f.StringVarP(&opts.output, "output", "o", "", "write the template here instead of in place")
	_ = cmd.MarkFlagRequired("out")
	cmd.MarkFlagsMutuallyExclusive("focus", "origin")
	return cmd
}

func (o trimOpts) trimData() (*director.TrimData, error) {
	td := &director.TrimData{InTime: o.in, OutTime: o.out, CropScale: o.zoom}
	switch {
	case o.focus != "":
		cx, cy, err := parsePair(o.focus)
		if err != nil {
			return nil, fmt.Errorf("--focus: %w", err)
		}
		td.CropX = effects.CenterToOrigin(cx, o.zoom)
		td.CropY = effects.CenterToOrigin(cy, o.zoom)
	case o.origin != "":
		x, y, err := parsePair(o.origin)
		if err != nil {
			return nil, fmt.Errorf("--origin: %w", err)
		}
		td.CropX, td.CropY = x, y
	}
	return td, nil
}

func parsePair(s string) (float64, float64, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
