package render

import (
	"errors"
	"math"
)

// Certificate space. Every stored field coordinate is expressed in these units.
const (
	CertWidth  = 2000
	CertHeight = 1414

	// CanvasDisplayWidth is the on-screen width of the builder canvas at zoom 1.
	CanvasDisplayWidth = 800
)

var (
	ErrInvalidZoom       = errors.New("zoom must be a positive finite number")
	ErrInvalidMultiplier = errors.New("export multiplier must be a positive finite number")
)

// Rect is an axis-aligned box before rotation, top-left origin.
type Rect struct {
	X, Y, W, H float64
}

// DisplayScale maps certificate space onto the builder canvas at the given zoom.
func DisplayScale(zoom float64) (float64, error) {
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return 0, ErrInvalidZoom
	}
	return float64(CanvasDisplayWidth) / float64(CertWidth) * zoom, nil
}

// ExportMultiplier is the rasterization multiplier relative to CanvasDisplayWidth
// that yields full certificate resolution.
func ExportMultiplier() float64 {
	return float64(CertWidth) / float64(CanvasDisplayWidth)
}

func ToDisplay(v, zoom float64) (float64, error) {
	s, err := DisplayScale(zoom)
	if err != nil {
		return 0, err
	}
	return v * s, nil
}

func ToCertificate(v, zoom float64) (float64, error) {
	s, err := DisplayScale(zoom)
	if err != nil {
		return 0, err
	}
	return v / s, nil
}

func ToDisplayRect(r Rect, zoom float64) (Rect, error) {
	s, err := DisplayScale(zoom)
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: r.X * s, Y: r.Y * s, W: r.W * s, H: r.H * s}, nil
}

func ToCertificateRect(r Rect, zoom float64) (Rect, error) {
	s, err := DisplayScale(zoom)
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: r.X / s, Y: r.Y / s, W: r.W / s, H: r.H / s}, nil
}

// rasterSize returns the pixel dimensions of certificate space at scale.
func rasterSize(scale float64) (int, int) {
	return int(math.Round(CertWidth * scale)), int(math.Round(CertHeight * scale))
}

// exportScale converts an export multiplier into a certificate-to-pixel scale.
func exportScale(multiplier float64) (float64, error) {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return 0, ErrInvalidMultiplier
	}
	return float64(CanvasDisplayWidth) * multiplier / float64(CertWidth), nil
}
