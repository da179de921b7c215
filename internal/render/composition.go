package render

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/disintegration/imaging"
)

type placement struct {
	field  model.CertificateField
	text   string
	symbol image.Image // nil untuk QR berarti placeholder
	skip   bool
}

// Composition is a composed template owned by its caller. It is not safe for
// concurrent use.
type Composition struct {
	compositor *Compositor
	background image.Image
	placements []placement
	mode       Mode
	zoom       float64
	closed     bool
}

func (p *Composition) Mode() Mode     { return p.mode }
func (p *Composition) Zoom() float64  { return p.zoom }
func (p *Composition) IsClosed() bool { return p.closed }

func (p *Composition) SetZoom(zoom float64) error {
	if _, err := DisplayScale(zoom); err != nil {
		return err
	}
	p.zoom = zoom
	return nil
}

// Fields returns the current field list in z-order, including edits applied.
func (p *Composition) Fields() []model.CertificateField {
	out := make([]model.CertificateField, 0, len(p.placements))
	for _, pl := range p.placements {
		out = append(out, pl.field)
	}
	return out
}

// Preview rasterizes at the display scale of the current zoom.
func (p *Composition) Preview() (*image.NRGBA, error) {
	s, err := DisplayScale(p.zoom)
	if err != nil {
		return nil, err
	}
	return p.rasterize(s)
}

// Export rasterizes at CanvasDisplayWidth*multiplier pixels wide, independent
// of the preview zoom. ExportMultiplier() yields CertWidth×CertHeight.
func (p *Composition) Export(multiplier float64) (*image.NRGBA, error) {
	s, err := exportScale(multiplier)
	if err != nil {
		return nil, err
	}
	return p.rasterize(s)
}

// Handles returns the display-space box of every renderable field.
func (p *Composition) Handles() ([]model.FieldHandle, error) {
	if p.closed {
		return nil, ErrCompositionClosed
	}
	if p.mode != ModeEditable {
		return nil, ErrCompositionLocked
	}

	handles := make([]model.FieldHandle, 0, len(p.placements))
	for _, pl := range p.placements {
		if pl.skip {
			continue
		}
		d, err := ToDisplayRect(p.certificateBox(pl), p.zoom)
		if err != nil {
			return nil, err
		}
		handles = append(handles, model.FieldHandle{
			FieldID:  pl.field.ID,
			Kind:     pl.field.Kind,
			Left:     d.X,
			Top:      d.Y,
			Width:    d.W,
			Height:   d.H,
			Rotation: pl.field.Rotation,
		})
	}
	return handles, nil
}

// ApplyEdit translates a display-space edit of one field back into
// certificate space and updates the composition. A zero edit zoom uses the
// composition's zoom.
func (p *Composition) ApplyEdit(edit model.FieldEdit) (model.CertificateField, error) {
	if p.closed {
		return model.CertificateField{}, ErrCompositionClosed
	}
	if p.mode != ModeEditable {
		return model.CertificateField{}, ErrCompositionLocked
	}

	idx := -1
	for i := range p.placements {
		if p.placements[i].field.ID == edit.Field.ID && !p.placements[i].skip {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.CertificateField{}, fmt.Errorf("%w: %s", ErrFieldNotFound, edit.Field.ID)
	}

	if edit.Zoom == 0 {
		edit.Zoom = p.zoom
	}
	edit.Field = p.placements[idx].field
	updated, err := p.compositor.TranslateEdit(edit)
	if err != nil {
		return model.CertificateField{}, err
	}
	p.placements[idx].field = updated
	return updated, nil
}

// Close releases loaded images. Safe to call more than once.
func (p *Composition) Close() {
	p.background = nil
	for i := range p.placements {
		p.placements[i].symbol = nil
	}
	p.closed = true
}

func (p *Composition) rasterize(scale float64) (*image.NRGBA, error) {
	if p.closed {
		return nil, ErrCompositionClosed
	}

	surface := NewSurface(SurfaceOptions{
		Scale:        scale,
		TextBaseline: p.compositor.opts.TextBaseline,
	})
	defer surface.Close()

	faces := newFaceCache(p.compositor.fonts)

	surface.DrawBackground(p.background)

	for _, pl := range p.placements {
		if pl.skip {
			continue
		}
		var err error
		if pl.field.Kind == model.FieldQRCode {
			err = p.drawQR(surface, faces, pl)
		} else {
			err = p.drawText(surface, faces, pl)
		}
		if err != nil {
			return nil, fmt.Errorf("draw field %s: %w", pl.field.ID, err)
		}
	}
	return surface.Release(), nil
}

func (p *Composition) drawText(s *Surface, faces *faceCache, pl placement) error {
	if pl.text == "" {
		return nil
	}
	f := pl.field
	scale := s.Scale()

	c, err := model.ParseHexColor(f.Color)
	if err != nil {
		return err
	}

	face := faces.get(f.FontFamily, f.FontWeight, effectiveFontSize(f.FontSize)*scale)
	layout := face.layout(pl.text, f.MaxWidth*scale)
	layer := drawTextLayer(layout, f.TextAlign, c)

	y := f.Y * scale
	if s.opts.TextBaseline == BaselineAlphabetic {
		y -= layout.ascent
	}
	s.DrawLayer(layer, f.X*scale, y, f.Rotation)
	return nil
}

func (p *Composition) drawQR(s *Surface, faces *faceCache, pl placement) error {
	f := pl.field
	scale := s.Scale()
	w := int(math.Round(f.Width * scale))
	h := int(math.Round(f.Height * scale))
	if w < 1 || h < 1 {
		return nil
	}

	var layer *image.NRGBA
	if pl.symbol != nil {
		layer = qrLayer(pl.symbol, w, h)
	} else {
		size := math.Max(MinFontSize*scale, math.Min(float64(w), float64(h))*0.2)
		layer = placeholderLayer(faces.get(model.DefaultFontFamily, model.WeightBold, size), w, h, scale)
	}
	s.DrawLayer(layer, f.X*scale, f.Y*scale, f.Rotation)
	return nil
}

// certificateBox is the unrotated field box in certificate space.
func (p *Composition) certificateBox(pl placement) Rect {
	f := pl.field
	if f.Kind == model.FieldQRCode {
		return Rect{X: f.X, Y: f.Y, W: f.Width, H: f.Height}
	}

	face := p.compositor.fonts.newFace(f.FontFamily, f.FontWeight, effectiveFontSize(f.FontSize))
	layout := face.layout(pl.text, f.MaxWidth)
	y := f.Y
	if p.compositor.opts.TextBaseline == BaselineAlphabetic {
		y -= layout.ascent
	}
	return Rect{X: f.X, Y: y, W: layout.width, H: layout.height}
}

type faceKey struct {
	family string
	weight model.FontWeight
	size   float64
}

// faceCache shares faces between fields of one rasterization.
type faceCache struct {
	fonts *FontRegistry
	faces map[faceKey]*textFace
}

func newFaceCache(fonts *FontRegistry) *faceCache {
	return &faceCache{fonts: fonts, faces: map[faceKey]*textFace{}}
}

func (c *faceCache) get(family string, weight model.FontWeight, size float64) *textFace {
	k := faceKey{family: family, weight: weight, size: size}
	if f, ok := c.faces[k]; ok {
		return f
	}
	f := c.fonts.newFace(family, weight, size)
	c.faces[k] = f
	return f
}

// EncodePNG encodes a raster for HTTP responses and the PDF flattener.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
