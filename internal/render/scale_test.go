package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateRoundTrip(t *testing.T) {
	zooms := []float64{0.1, 0.25, 0.5, 1, 1.333, 2, 3.7}
	points := []Rect{
		{X: 0, Y: 0, W: 150, H: 150},
		{X: 400, Y: 280, W: 600, H: 40},
		{X: 1999.5, Y: 1413.25, W: 0.5, H: 0.75},
	}

	for _, z := range zooms {
		for _, r := range points {
			d, err := ToDisplayRect(r, z)
			require.NoError(t, err)
			back, err := ToCertificateRect(d, z)
			require.NoError(t, err)
			assert.InDelta(t, r.X, back.X, 1e-9)
			assert.InDelta(t, r.Y, back.Y, 1e-9)
			assert.InDelta(t, r.W, back.W, 1e-9)
			assert.InDelta(t, r.H, back.H, 1e-9)

			x, err := ToDisplay(r.X, z)
			require.NoError(t, err)
			xb, err := ToCertificate(x, z)
			require.NoError(t, err)
			assert.InDelta(t, r.X, xb, 1e-9)
		}
	}
}

func TestDisplayScale(t *testing.T) {
	s, err := DisplayScale(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, s, 1e-12)

	s, err = DisplayScale(2)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, s, 1e-12)

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := DisplayScale(bad)
		assert.ErrorIs(t, err, ErrInvalidZoom)
	}
}

func TestExportMultiplier(t *testing.T) {
	assert.Equal(t, 2.5, ExportMultiplier())

	s, err := exportScale(ExportMultiplier())
	require.NoError(t, err)
	w, h := rasterSize(s)
	assert.Equal(t, CertWidth, w)
	assert.Equal(t, CertHeight, h)

	_, err = exportScale(0)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)
}

func TestRotatedCenter(t *testing.T) {
	x, y := rotatedCenter(0, 0, 10, 20, 0)
	assert.InDelta(t, 5, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	// 90° searah jarum jam: sumbu x lokal mengarah ke bawah
	x, y = rotatedCenter(0, 0, 10, 20, 90)
	assert.InDelta(t, -10, x, 1e-9)
	assert.InDelta(t, 5, y, 1e-9)
}

func TestParseTextBaseline(t *testing.T) {
	assert.Equal(t, BaselineAlphabetic, ParseTextBaseline(" Alphabetic "))
	assert.Equal(t, BaselineTop, ParseTextBaseline("top"))
	assert.Equal(t, BaselineTop, ParseTextBaseline(""))
}
