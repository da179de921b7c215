package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// TextBaseline controls how a text field's y coordinate is interpreted.
type TextBaseline int

const (
	// BaselineTop places the top of the text box at y.
	BaselineTop TextBaseline = iota
	// BaselineAlphabetic places the first line's baseline at y.
	BaselineAlphabetic
)

// ParseTextBaseline accepts "alphabetic"; anything else is BaselineTop.
func ParseTextBaseline(s string) TextBaseline {
	if strings.EqualFold(strings.TrimSpace(s), "alphabetic") {
		return BaselineAlphabetic
	}
	return BaselineTop
}

// SurfaceOptions configures one drawing surface. Each surface carries its own
// settings; nothing is shared between surfaces.
type SurfaceOptions struct {
	Scale        float64
	TextBaseline TextBaseline
	Fill         color.Color
}

// Surface is a raster of certificate space at a fixed scale.
type Surface struct {
	img  *image.NRGBA
	opts SurfaceOptions
}

func NewSurface(opts SurfaceOptions) *Surface {
	if opts.Fill == nil {
		opts.Fill = color.White
	}
	w, h := rasterSize(opts.Scale)
	return &Surface{
		img:  imaging.New(w, h, opts.Fill),
		opts: opts,
	}
}

func (s *Surface) Scale() float64 { return s.opts.Scale }

func (s *Surface) Bounds() image.Rectangle {
	if s.img == nil {
		return image.Rectangle{}
	}
	return s.img.Bounds()
}

// Release hands the raster to the caller and closes the surface.
func (s *Surface) Release() *image.NRGBA {
	img := s.img
	s.img = nil
	return img
}

// Close releases the pixel buffer. The surface is unusable afterwards.
func (s *Surface) Close() {
	s.img = nil
}

// DrawBackground scales img uniformly to fit certificate space and anchors it
// at the origin. Uncovered area keeps the fill color.
func (s *Surface) DrawBackground(img image.Image) {
	b := img.Bounds()
	if b.Empty() || s.img == nil {
		return
	}
	fit := math.Min(float64(CertWidth)/float64(b.Dx()), float64(CertHeight)/float64(b.Dy()))
	w := int(math.Round(float64(b.Dx()) * fit * s.opts.Scale))
	h := int(math.Round(float64(b.Dy()) * fit * s.opts.Scale))
	if w < 1 || h < 1 {
		return
	}
	scaled := imaging.Resize(img, w, h, imaging.CatmullRom)
	draw.Draw(s.img, scaled.Bounds(), scaled, image.Point{}, draw.Over)
}

// DrawLayer composites a layer whose unrotated top-left corner sits at (x, y)
// in pixels. Rotation is clockwise in degrees around that corner.
func (s *Surface) DrawLayer(layer image.Image, x, y, rotation float64) {
	if s.img == nil {
		return
	}
	lb := layer.Bounds()
	if rotation == 0 {
		dst := image.Rect(0, 0, lb.Dx(), lb.Dy()).Add(image.Pt(int(math.Round(x)), int(math.Round(y))))
		draw.Draw(s.img, dst, layer, lb.Min, draw.Over)
		return
	}

	// imaging.Rotate berputar berlawanan arah jarum jam dan menjaga pusat gambar
	rotated := imaging.Rotate(layer, -rotation, color.Transparent)
	cx, cy := rotatedCenter(x, y, float64(lb.Dx()), float64(lb.Dy()), rotation)
	rb := rotated.Bounds()
	left := int(math.Round(cx - float64(rb.Dx())/2))
	top := int(math.Round(cy - float64(rb.Dy())/2))
	draw.Draw(s.img, rb.Add(image.Pt(left, top)), rotated, rb.Min, draw.Over)
}

// rotatedCenter returns where the center of a w×h box with top-left (x, y)
// ends up after rotating the box clockwise by deg around (x, y), y axis down.
func rotatedCenter(x, y, w, h, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := w/2, h/2
	return x + dx*cos - dy*sin, y + dx*sin + dy*cos
}
