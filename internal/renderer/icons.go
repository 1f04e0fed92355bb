package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// icon is a vector stand-in for an emoji the text font has no glyph for.
// Layers are traced into a square box whose side is the font ascent.
type icon struct {
	layers []iconLayer
}

type iconLayer struct {
	trace func(z *vector.Rasterizer, s float32)
	fill  color.NRGBA
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5523

var icons = map[rune]icon{
	'\U0001F4CD': {layers: []iconLayer{ // round pushpin, director.LocationPin
		{tracePin, color.NRGBA{0xE5, 0x39, 0x35, 0xFF}},
		{tracePinHead, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}},
	}},
}

func tracePin(z *vector.Rasterizer, s float32) {
	cx, cy, r := s/2, s*0.38, s*0.30
	tip := s * 0.97
	z.MoveTo(cx, tip)
	z.QuadTo(cx-r*0.95, s*0.66, cx-r, cy)
	z.CubeTo(cx-r, cy-kappa*r, cx-kappa*r, cy-r, cx, cy-r)
	z.CubeTo(cx+kappa*r, cy-r, cx+r, cy-kappa*r, cx+r, cy)
	z.QuadTo(cx+r*0.95, s*0.66, cx, tip)
	z.ClosePath()
}

func tracePinHead(z *vector.Rasterizer, s float32) {
	traceCircle(z, s/2, s*0.38, s*0.30*0.38)
}

func traceCircle(z *vector.Rasterizer, cx, cy, r float32) {
	k := kappa * r
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
}

// draw paints the icon with its top-left corner at at. A non-nil tint
// paints the silhouette in one color, which is how shadows are drawn.
func (ic icon) draw(dst draw.Image, at image.Point, size int, tint color.Color) {
	box := image.Rect(at.X, at.Y, at.X+size, at.Y+size)
	for i, l := range ic.layers {
		if tint != nil && i > 0 {
			break
		}
		var c color.Color = l.fill
		if tint != nil {
			c = tint
		}
		z := vector.NewRasterizer(size, size)
		l.trace(z, float32(size))
		z.Draw(dst, box, image.NewUniform(c), image.Point{})
	}
}

// segment is a run of font text, or a single icon when text is empty.
type segment struct {
	text string
	icon rune
}

func splitIcons(s string) []segment {
	var segs []segment
	var run strings.Builder
	for _, r := range s {
		if _, ok := icons[r]; !ok {
			run.WriteRune(r)
			continue
		}
		if run.Len() > 0 {
			segs = append(segs, segment{text: run.String()})
			run.Reset()
		}
		segs = append(segs, segment{icon: r})
	}
	if run.Len() > 0 {
		segs = append(segs, segment{text: run.String()})
	}
	return segs
}

func iconSize(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

// measureLine is font.MeasureString with icons counted as square boxes.
func measureLine(face font.Face, s string) int {
	var w fixed.Int26_6
	for _, seg := range splitIcons(s) {
		if seg.text == "" {
			w += fixed.I(iconSize(face))
			continue
		}
		w += font.MeasureString(face, seg.text)
	}
	return w.Ceil()
}

// drawLine draws s with its baseline at y. tint is passed through to icons.
func drawLine(dst draw.Image, face font.Face, c color.Color, tint color.Color, x, y int, s string) {
	dot := fixed.P(x, y)
	size := iconSize(face)
	for _, seg := range splitIcons(s) {
		if seg.text == "" {
			icons[seg.icon].draw(dst, image.Pt(dot.X.Round(), y-size), size, tint)
			dot.X += fixed.I(size)
			continue
		}
		d := font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: dot}
		d.DrawString(seg.text)
		dot = d.Dot
	}
}
