package engine

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ivlev/reel2video/internal/config"
	"github.com/ivlev/reel2video/internal/director"
	"github.com/ivlev/reel2video/internal/effects"
	"github.com/ivlev/reel2video/internal/logging"
	"github.com/ivlev/reel2video/internal/renderer"
	"github.com/ivlev/reel2video/internal/source"
	"github.com/ivlev/reel2video/internal/video"
)

// OverlayWriter rasterizes a scene overlay to a PNG file.
type OverlayWriter interface {
	WritePNG(path string, o renderer.Overlay) error
}

// sceneJob is one validated (scene, clip) pair.
type sceneJob struct {
	director.Placement
	Clip  *source.Clip
	Probe *video.ProbeResult
}

// Transformer is the Clip Transform Stage: trim, then crop/scale, then text.
type Transformer struct {
	cfg      *config.Config
	encoder  video.VideoEncoder
	effect   effects.Effect
	overlays OverlayWriter
}

func NewTransformer(cfg *config.Config, encoder video.VideoEncoder, effect effects.Effect, overlays OverlayWriter) *Transformer {
	return &Transformer{cfg: cfg, encoder: encoder, effect: effect, overlays: overlays}
}

// Transform produces the scene's normalized clip inside ws and returns its path.
// Each step's input is removed once its output exists, so a finished scene
// leaves exactly one live file behind.
func (t *Transformer) Transform(ctx context.Context, ws *Workspace, job sceneJob, ctaLink string) (string, error) {
	logger := logging.WithScene(logging.FromContext(ctx), job.Index, job.Key)
	sc := job.Scene

	current, err := ws.WriteFile(job.Index, "source", clipExt(job.Clip.Name), job.Clip.Data)
	if err != nil {
		return "", &stepError{"source", err}
	}
	advance := func(next string) {
		if err := ws.Remove(current); err != nil {
			logger.Warn("could not remove intermediate", "path", current, "err", err)
		}
		current = next
	}

	if needsTrim(sc) {
		dst, err := ws.Path(job.Index, "trim", ".mp4")
		if err != nil {
			return "", &stepError{"trim", err}
		}
		logger.Debug("trim", "in", sc.TrimData.InTime, "out", sc.TrimData.OutTime)
		if err := t.encoder.Trim(ctx, current, dst, sc.TrimData.InTime, sc.TrimData.OutTime); err != nil {
			return "", &stepError{"trim", err}
		}
		advance(dst)
	}

	params := t.params(job.Index, sc)
	dst, err := ws.Path(job.Index, "frame", ".mp4")
	if err != nil {
		return "", &stepError{"frame", err}
	}
	filter := t.effect.GenerateFilter(params)
	logger.Debug("frame", "filter", filter)
	if err := t.encoder.Frame(ctx, current, dst, params, filter, job.Probe.HasAudio); err != nil {
		return "", &stepError{"frame", err}
	}
	advance(dst)

	ov := overlayFor(sc, ctaLink)
	if ov.Empty() {
		return current, nil
	}
	png, err := ws.Path(job.Index, "overlay", ".png")
	if err != nil {
		return "", &stepError{"overlay", err}
	}
	defer ws.Remove(png)
	if err := t.overlays.WritePNG(png, ov); err != nil {
		return "", &stepError{"overlay", err}
	}
	dst, err = ws.Path(job.Index, "text", ".mp4")
	if err != nil {
		return "", &stepError{"overlay", err}
	}
	logger.Debug("overlay", "text", ov.Text, "qr", ov.QRLink != "")
	if err := t.encoder.Overlay(ctx, current, png, dst); err != nil {
		return "", &stepError{"overlay", err}
	}
	advance(dst)
	return current, nil
}

func (t *Transformer) params(index int, sc director.Scene) config.ClipParams {
	if sc.TrimData == nil {
		return t.cfg.Params(index, sc.Duration, 0, 0, 1)
	}
	td := sc.TrimData
	return t.cfg.Params(index, sc.Duration, td.CropX, td.CropY, td.CropScale)
}

// needsTrim is false when the source already starts at the scene's first frame
// and covers its length; Frame cuts to duration either way.
func needsTrim(sc director.Scene) bool {
	td := sc.TrimData
	if td == nil {
		return false
	}
	return !(td.InTime == 0 && td.OutTime >= sc.Duration)
}

func overlayFor(sc director.Scene, ctaLink string) renderer.Overlay {
	ov := renderer.Overlay{Style: sc.TextStyle}
	if sc.HasOverlay() {
		ov.Text = sc.Decorated()
	}
	if ctaLink != "" && sc.TextStyle != nil && sc.TextStyle.Role == director.RoleCTA {
		ov.QRLink = ctaLink
	}
	return ov
}

func clipExt(name string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		return ext
	}
	return ".mp4"
}
