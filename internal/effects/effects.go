package effects

import (
	"fmt"
	"math"

	"github.com/ivlev/reel2video/internal/config"
)

// Effect builds the -vf chain that normalizes one clip onto the output frame.
type Effect interface {
	GenerateFilter(params config.ClipParams) string
}

// FramingEffect fits the clip onto the frame, applies the crop window when
// zoomed, then fixes frame rate, pixel format and duration.
type FramingEffect struct{}

func (e *FramingEffect) GenerateFilter(p config.ClipParams) string {
	filter := FitFilter(p.Width, p.Height)
	if p.CropScale > 1 {
		win := ComputeCropWindow(p.Width, p.Height, p.CropX, p.CropY, p.CropScale)
		filter += "," + win.Filter(p.Width, p.Height)
	}
	return filter + "," + PaceFilter(p.FPS, p.Duration)
}

// FitFilter scales without stretching or cropping and pads the rest, centered.
func FitFilter(width, height int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		width, height, width, height,
	)
}

// CropWindow is a rectangle in output-frame pixels.
type CropWindow struct {
	X, Y          int
	Width, Height int
}

// ComputeCropWindow sizes the window at (outW/scale, outH/scale) and places its
// top-left corner at (cropX*(outW-w), cropY*(outH-h)). cropX/cropY are origin
// fractions, so 0 pins the window to the left/top edge and 1 to the right/bottom.
func ComputeCropWindow(outW, outH int, cropX, cropY, cropScale float64) CropWindow {
	if !(cropScale > 1) {
		return CropWindow{Width: outW, Height: outH}
	}
	w := int(math.Round(float64(outW) / cropScale))
	h := int(math.Round(float64(outH) / cropScale))
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	x := int(math.Round(clamp01(cropX) * float64(outW-w)))
	y := int(math.Round(clamp01(cropY) * float64(outH-h)))
	return CropWindow{X: x, Y: y, Width: w, Height: h}
}

// Filter crops the window and scales it back up to the full frame.
func (c CropWindow) Filter(outW, outH int) string {
	return fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d,setsar=1", c.Width, c.Height, c.X, c.Y, outW, outH)
}

// CenterToOrigin converts a focal-point center fraction (what a drag-to-focus
// cropper produces) into the origin fraction ComputeCropWindow expects.
func CenterToOrigin(center, cropScale float64) float64 {
	if !(cropScale > 1) {
		return 0
	}
	half := 1 / (2 * cropScale)
	return clamp01((clamp01(center) - half) / (1 - 2*half))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
