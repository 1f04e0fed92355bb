package system

import (
	"image"
	"sync"
)

// ImagePool recycles RGBA canvases per frame rectangle. Overlay layers are
// full output frames (about 8 MB at 1080x1920) and every scene needs one.
type ImagePool struct {
	bySize sync.Map // image.Rectangle -> *sync.Pool
}

var overlayCanvases = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{}
}

// GetImage borrows a transparent canvas from the process-wide pool.
func GetImage(rect image.Rectangle) *image.RGBA {
	return overlayCanvases.Get(rect)
}

// PutImage returns a canvas borrowed with GetImage.
func PutImage(img *image.RGBA) {
	overlayCanvases.Put(img)
}

// Get returns a canvas covering rect with every pixel zeroed.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	pool, ok := p.bySize.Load(rect)
	if !ok {
		pool, _ = p.bySize.LoadOrStore(rect, &sync.Pool{
			New: func() any { return image.NewRGBA(rect) },
		})
	}
	canvas := pool.(*sync.Pool).Get().(*image.RGBA)
	clear(canvas.Pix)
	return canvas
}

// Put ignores canvases whose rectangle was never handed out.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if pool, ok := p.bySize.Load(img.Rect); ok {
		pool.(*sync.Pool).Put(img)
	}
}
