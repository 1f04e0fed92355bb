package renderer

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/skip2/go-qrcode"
)

// drawQR places a scannable badge centered in the bottom safe area.
func (r *OverlayRenderer) drawQR(dst *image.RGBA, link string) error {
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}
	badge := q.Image(qrSize)

	b := badge.Bounds()
	area := QRBounds(r.Width, r.Height)
	if b.Dx() != area.Dx() {
		// go-qrcode grows the image when the link needs more modules.
		x := (r.Width - b.Dx()) / 2
		area = image.Rect(x, r.Height-b.Dy(), x+b.Dx(), r.Height)
	}
	draw.Draw(dst, area, badge, b.Min, draw.Over)
	return nil
}

// QRBounds is where drawQR places the badge on a width x height frame.
func QRBounds(width, height int) image.Rectangle {
	x := (width - qrSize) / 2
	y := height - BottomMargin + qrGap
	if y+qrSize > height {
		y = height - qrSize
	}
	return image.Rect(x, y, x+qrSize, y+qrSize)
}
