package render

import (
	"cmp"
	"image"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/unicode/bidi"
)

const (
	// MinFontSize is the smallest font size rendered, in certificate units.
	MinFontSize = 10

	lineHeightFactor = 1.16
)

// textLine is one wrapped line with its runs in visual (left to right) order.
type textLine struct {
	runs  []shaping.Output
	width float64
}

// textLayout is a shaped, wrapped text box in pixel units of one raster scale.
type textLayout struct {
	lines      []textLine
	width      float64
	height     float64
	lineHeight float64
	ascent     float64
}

func effectiveFontSize(size float64) float64 {
	if size < MinFontSize {
		return MinFontSize
	}
	return size
}

// paragraphDirection follows the first strong character, as the Unicode
// bidi algorithm does for paragraphs without an explicit direction.
func paragraphDirection(s string) di.Direction {
	for _, r := range s {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.R, bidi.AL:
			return di.DirectionRTL
		case bidi.L:
			return di.DirectionLTR
		}
	}
	return di.DirectionLTR
}

// layout shapes and wraps text at maxWidth pixels (0 disables wrapping).
// Words are never broken: a word wider than maxWidth stays whole on its own
// line.
func (t *textFace) layout(text string, maxWidth float64) textLayout {
	l := textLayout{
		ascent:     t.ascent,
		lineHeight: t.height * lineHeightFactor,
	}

	limit := math.MaxInt32
	if maxWidth > 0 {
		limit = int(math.Floor(maxWidth))
	}

	for _, para := range strings.Split(text, "\n") {
		runes := []rune(strings.Join(strings.Fields(para), " "))
		if len(runes) == 0 {
			l.lines = append(l.lines, textLine{})
			continue
		}
		dir := paragraphDirection(para)
		shaped := t.shape(runes, dir)
		lines, _ := t.wrapper.WrapParagraph(shaping.WrapConfig{
			Direction:   dir,
			BreakPolicy: shaping.Never,
		}, limit, runes, shaping.NewSliceIterator(shaped))

		for _, line := range lines {
			l.lines = append(l.lines, visualLine(line))
		}
	}

	for _, line := range l.lines {
		l.width = math.Max(l.width, line.width)
	}
	if maxWidth > 0 {
		l.width = maxWidth
	}
	l.height = l.lineHeight * float64(len(l.lines))
	return l
}

// shape splits runes by bidi level, script and face, then shapes every run.
func (t *textFace) shape(runes []rune, dir di.Direction) []shaping.Output {
	t.last = nil
	runs := t.seg.Split(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      t.faces[0],
		Size:      t.size,
	}, t)

	out := make([]shaping.Output, 0, len(runs))
	for _, in := range runs {
		out = append(out, t.shaper.Shape(in))
	}
	return out
}

// visualLine copies a wrapped line out of the wrapper's buffers, sorted by
// visual index.
func visualLine(line shaping.Line) textLine {
	runs := slices.Clone([]shaping.Output(line))
	slices.SortStableFunc(runs, func(a, b shaping.Output) int {
		return cmp.Compare(a.VisualIndex, b.VisualIndex)
	})

	tl := textLine{runs: runs}
	for _, run := range runs {
		for _, g := range run.Glyphs {
			tl.width += fixedToFloat(g.XAdvance)
		}
	}
	return tl
}

// drawTextLayer rasterizes a layout into its own transparent layer.
func drawTextLayer(l textLayout, align model.TextAlign, c color.Color) *image.NRGBA {
	w := int(math.Ceil(l.width))
	h := int(math.Ceil(l.height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	ras := vector.NewRasterizer(w, h)

	for i, line := range l.lines {
		x := 0.0
		switch align {
		case model.AlignCenter:
			x = (l.width - line.width) / 2
		case model.AlignRight:
			x = l.width - line.width
		}
		baseline := float64(i)*l.lineHeight + l.ascent
		for _, run := range line.runs {
			x = appendRun(ras, run, x, baseline)
		}
	}

	ras.Draw(layer, layer.Bounds(), image.NewUniform(c), image.Point{})
	return layer
}

// appendRun adds the outlines of one shaped run starting at pen x and returns
// the pen position after it.
func appendRun(ras *vector.Rasterizer, run shaping.Output, x, baseline float64) float64 {
	upem := float64(run.Face.Upem())
	if upem == 0 {
		return x
	}
	scale := fixedToFloat(run.Size) / upem

	for _, g := range run.Glyphs {
		gx := x + fixedToFloat(g.XOffset)
		gy := baseline - fixedToFloat(g.YOffset)
		adv := fixedToFloat(g.XAdvance)

		if g.GlyphID == 0 {
			appendMissingGlyph(ras, gx, gy, adv, fixedToFloat(run.Size))
		} else if outline, ok := run.Face.GlyphData(g.GlyphID).(font.GlyphOutline); ok {
			appendOutline(ras, outline, gx, gy, scale)
		}
		x += adv
	}
	return x
}

// appendOutline converts font units (y up) into layer pixels (y down).
func appendOutline(ras *vector.Rasterizer, o font.GlyphOutline, x, y, scale float64) {
	pt := func(p font.SegmentPoint) (float32, float32) {
		return float32(x + float64(p.X)*scale), float32(y - float64(p.Y)*scale)
	}

	open := false
	for _, seg := range o.Segments {
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			if open {
				ras.ClosePath()
			}
			ras.MoveTo(pt(seg.Args[0]))
			open = true
		case ot.SegmentOpLineTo:
			ras.LineTo(pt(seg.Args[0]))
		case ot.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			ras.QuadTo(bx, by, cx, cy)
		case ot.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			dx, dy := pt(seg.Args[2])
			ras.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		ras.ClosePath()
	}
}

// appendMissingGlyph draws an outlined box for runes no font can render so
// the text stays visible and measurable.
func appendMissingGlyph(ras *vector.Rasterizer, x, baseline, adv, size float64) {
	x0, x1 := x+1, x+adv-1
	y0, y1 := baseline-size*0.7, baseline
	if x1-x0 < 2 || y1-y0 < 2 {
		return
	}
	stroke := math.Max(1, (x1-x0)/8)

	rect := func(ax, ay, bx, by float64, clockwise bool) {
		ras.MoveTo(float32(ax), float32(ay))
		if clockwise {
			ras.LineTo(float32(bx), float32(ay))
			ras.LineTo(float32(bx), float32(by))
			ras.LineTo(float32(ax), float32(by))
		} else {
			ras.LineTo(float32(ax), float32(by))
			ras.LineTo(float32(bx), float32(by))
			ras.LineTo(float32(bx), float32(ay))
		}
		ras.ClosePath()
	}
	rect(x0, y0, x1, y1, true)
	rect(x0+stroke, y0+stroke, x1-stroke, y1-stroke, false)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
