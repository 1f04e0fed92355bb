// Package renderer draws scene text overlays as full-frame transparent PNGs.
// The transform stage composites them at 0:0, so every pixel position here is
// an output-frame position.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/ivlev/reel2video/internal/director"
	"github.com/ivlev/reel2video/internal/system"
)

// Safe-area margins for vertical video; the bottom one clears platform UI.
const (
	SideMargin   = 64
	TopMargin    = 220
	BottomMargin = 420

	shadowOffset = 3
	lineSpacing  = 1.2
	qrSize       = 280
	qrGap        = 40
)

var shadowColor = color.NRGBA{0, 0, 0, 153}

// Overlay is everything burned into one scene.
type Overlay struct {
	Text   string
	Style  *director.TextStyle
	QRLink string
}

// Empty reports whether there is nothing to draw.
func (o Overlay) Empty() bool {
	return strings.TrimSpace(o.Text) == "" && o.QRLink == ""
}

type faceKey struct {
	bold bool
	size float64
}

// OverlayRenderer owns parsed fonts and a cache of sized faces.
type OverlayRenderer struct {
	Width, Height int

	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// NewOverlayRenderer loads the Go fonts, or fontPath for both weights when set.
func NewOverlayRenderer(width, height int, fontPath string) (*OverlayRenderer, error) {
	r := &OverlayRenderer{Width: width, Height: height, faces: make(map[faceKey]font.Face)}

	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
		}
		r.regular, r.bold = f, f
		return r, nil
	}

	var err error
	if r.regular, err = opentype.Parse(goregular.TTF); err != nil {
		return nil, err
	}
	if r.bold, err = opentype.Parse(gobold.TTF); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OverlayRenderer) face(bold bool, size float64) (font.Face, *opentype.Font, error) {
	f := r.regular
	if bold {
		f = r.bold
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := faceKey{bold, size}
	if face, ok := r.faces[key]; ok {
		return face, f, nil
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, nil, err
	}
	r.faces[key] = face
	return face, f, nil
}

// Draw paints the overlay onto a pooled canvas. Callers return it with
// system.PutImage once encoded.
func (r *OverlayRenderer) Draw(o Overlay) (*image.RGBA, error) {
	style := o.Style
	if style == nil {
		style = &director.TextStyle{}
	}

	canvas := system.GetImage(image.Rect(0, 0, r.Width, r.Height))

	if text := strings.TrimSpace(o.Text); text != "" {
		if err := r.drawText(canvas, text, style); err != nil {
			system.PutImage(canvas)
			return nil, err
		}
	}
	if o.QRLink != "" {
		if err := r.drawQR(canvas, o.QRLink); err != nil {
			system.PutImage(canvas)
			return nil, err
		}
	}
	return canvas, nil
}

// WritePNG draws the overlay and writes it to path.
func (r *OverlayRenderer) WritePNG(path string, o Overlay) error {
	canvas, err := r.Draw(o)
	if err != nil {
		return err
	}
	defer system.PutImage(canvas)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, canvas); err != nil {
		f.Close()
		return fmt.Errorf("encode overlay: %w", err)
	}
	return f.Close()
}

func (r *OverlayRenderer) drawText(dst *image.RGBA, text string, style *director.TextStyle) error {
	fill, err := ParseColor(style.Color)
	if err != nil {
		return err
	}
	size := style.FontSize
	if size <= 0 {
		size = 60
	}
	face, f, err := r.face(isBold(style.FontWeight), size)
	if err != nil {
		return err
	}

	text = dropMissingGlyphs(f, text)
	lines := wrapLines(face, text, r.Width-2*SideMargin)
	if len(lines) == 0 {
		return nil
	}

	m := face.Metrics()
	lineHeight := int(float64(m.Height.Ceil()) * lineSpacing)
	ascent := m.Ascent.Ceil()
	blockHeight := lineHeight*(len(lines)-1) + ascent + m.Descent.Ceil()

	var top int
	switch style.Position {
	case director.PositionTop:
		top = TopMargin
	case director.PositionBottom:
		top = r.Height - BottomMargin - blockHeight
	default:
		top = (r.Height - blockHeight) / 2
	}

	withShadow := style.Shadow != "none"
	for i, line := range lines {
		x := lineX(style.Alignment, r.Width, measureLine(face, line))
		y := top + ascent + i*lineHeight

		if withShadow {
			drawLine(dst, face, shadowColor, shadowColor, x+shadowOffset, y+shadowOffset, line)
		}
		drawLine(dst, face, fill, nil, x, y, line)
	}
	return nil
}

func lineX(align director.TextAlignment, frameWidth, lineWidth int) int {
	switch align {
	case director.AlignLeft:
		return SideMargin
	case director.AlignRight:
		return frameWidth - SideMargin - lineWidth
	default:
		return (frameWidth - lineWidth) / 2
	}
}

func isBold(weight string) bool {
	switch strings.ToLower(weight) {
	case "bold", "semibold", "extrabold", "black", "600", "700", "800", "900":
		return true
	}
	return false
}

// wrapLines breaks text greedily on spaces so no line exceeds maxWidth pixels.
// Explicit newlines are kept; a single overlong word gets its own line.
func wrapLines(face font.Face, text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		current := words[0]
		for _, w := range words[1:] {
			candidate := current + " " + w
			if measureLine(face, candidate) <= maxWidth {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = w
		}
		lines = append(lines, current)
	}
	return lines
}

// dropMissingGlyphs removes runes the font cannot draw and has no icon for
// (most emoji in the Go fonts) instead of rendering .notdef boxes.
func dropMissingGlyphs(f *opentype.Font, text string) string {
	var buf sfnt.Buffer
	var b strings.Builder
	for _, r := range text {
		if unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		if _, ok := icons[r]; ok {
			b.WriteRune(r)
			continue
		}
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
