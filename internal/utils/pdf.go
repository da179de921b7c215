package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decoder untuk raster JPEG
	_ "image/png"  // decoder untuk raster PNG

	"github.com/jung-kurt/gofpdf"
)

// RasterDPI adalah asumsi resolusi cetak: points = pixels * 72 / RasterDPI
const RasterDPI = 300

var ErrPDFEmbedFailed = errors.New("failed to embed raster into pdf")

// PageSizePoints menghitung ukuran halaman PDF dari dimensi raster
func PageSizePoints(widthPx, heightPx int) (float64, float64) {
	return float64(widthPx) * 72 / RasterDPI, float64(heightPx) * 72 / RasterDPI
}

// FlattenToPDF membungkus satu raster hasil render menjadi PDF satu halaman
// yang ukurannya sama persis dengan raster. Tidak ada layout di sini.
func FlattenToPDF(raster []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raster))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFEmbedFailed, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty raster", ErrPDFEmbedFailed)
	}

	imageType := "PNG"
	if format == "jpeg" {
		imageType = "JPG"
	}

	w, h := PageSizePoints(cfg.Width, cfg.Height)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P", // dimensi diambil apa adanya dari Size
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(raster))
	pdf.ImageOptions("certificate", 0, 0, w, h, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFEmbedFailed, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFEmbedFailed, err)
	}
	return buf.Bytes(), nil
}
