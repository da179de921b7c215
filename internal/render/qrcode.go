package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
)

const (
	// QREncodeSize is the fixed encode resolution; placement scales it to the field box.
	QREncodeSize = 200
	// QRQuietZone is the margin around the symbol, in modules.
	QRQuietZone = 1

	qrPlaceholderLabel = "[QR]"
)

var ErrQREncodeFailed = errors.New("qr encode failed")

// QREncoder turns a payload into a square black-on-white raster.
type QREncoder interface {
	Encode(content string) (image.Image, error)
}

// ModuleEncoder encodes with skip2/go-qrcode at QREncodeSize with a one
// module quiet zone.
type ModuleEncoder struct {
	Level qrcode.RecoveryLevel
}

func NewModuleEncoder() ModuleEncoder {
	return ModuleEncoder{Level: qrcode.Medium}
}

func (e ModuleEncoder) Encode(content string) (image.Image, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrQREncodeFailed)
	}
	q, err := qrcode.New(content, e.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQREncodeFailed, err)
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()
	n := len(bitmap)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty symbol", ErrQREncodeFailed)
	}

	modules := n + 2*QRQuietZone
	img := image.NewGray(image.Rect(0, 0, QREncodeSize, QREncodeSize))
	for py := 0; py < QREncodeSize; py++ {
		my := py*modules/QREncodeSize - QRQuietZone
		for px := 0; px < QREncodeSize; px++ {
			mx := px*modules/QREncodeSize - QRQuietZone
			v := color.Gray{Y: 0xff}
			if my >= 0 && my < n && mx >= 0 && mx < n && bitmap[my][mx] {
				v = color.Gray{Y: 0}
			}
			img.SetGray(px, py, v)
		}
	}
	return img, nil
}

// qrLayer scales an encoded symbol to the field box in pixels.
func qrLayer(symbol image.Image, w, h int) *image.NRGBA {
	return imaging.Resize(symbol, w, h, imaging.NearestNeighbor)
}

// placeholderLayer draws the bordered "[QR]" box used when encoding fails.
func placeholderLayer(face *textFace, w, h int, scale float64) *image.NRGBA {
	layer := imaging.New(w, h, color.NRGBA{R: 0xf3, G: 0xf3, B: 0xf3, A: 0xff})
	border := image.NewUniform(color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff})
	stroke := int(math.Max(1, math.Round(2*scale)))

	draw.Draw(layer, image.Rect(0, 0, w, stroke), border, image.Point{}, draw.Src)
	draw.Draw(layer, image.Rect(0, h-stroke, w, h), border, image.Point{}, draw.Src)
	draw.Draw(layer, image.Rect(0, 0, stroke, h), border, image.Point{}, draw.Src)
	draw.Draw(layer, image.Rect(w-stroke, 0, w, h), border, image.Point{}, draw.Src)

	if face != nil {
		l := face.layout(qrPlaceholderLabel, 0)
		// satu baris; tinggi kotak teks = ascent + descent
		l.height = face.ascent + face.descent
		text := drawTextLayer(l, model.AlignLeft, color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff})
		tb := text.Bounds()
		at := image.Pt((w-tb.Dx())/2, (h-tb.Dy())/2)
		draw.Draw(layer, tb.Add(at), text, image.Point{}, draw.Over)
	}
	return layer
}
