package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/go-fonts/dejavu/dejavusans"
	"github.com/go-fonts/dejavu/dejavusansbold"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

type fontPair struct {
	regular *font.Font
	bold    *font.Font
}

func (p fontPair) pick(weight model.FontWeight) *font.Font {
	if weight == model.WeightBold && p.bold != nil {
		return p.bold
	}
	if p.regular != nil {
		return p.regular
	}
	return p.bold
}

// FontRegistry holds parsed fonts keyed by lower-cased family name. Parsed
// fonts are immutable and shared; faces are created per render because a
// font.Face is not safe for concurrent use.
//
// Runes the chosen family cannot render fall back to the Go fonts for Latin
// and then to DejaVu Sans, which covers Arabic.
type FontRegistry struct {
	families map[string]fontPair
	latin    fontPair
	script   fontPair
	log      *slog.Logger
}

// NewFontRegistry loads every .ttf/.otf in dir. A file named "Amiri-Bold.ttf"
// registers the bold weight of family "Amiri". An empty dir registers only the
// built-in fonts.
func NewFontRegistry(dir string, log *slog.Logger) (*FontRegistry, error) {
	builtin := map[string][]byte{
		"go regular":  goregular.TTF,
		"go bold":     gobold.TTF,
		"dejavu sans": dejavusans.TTF,
		"dejavu bold": dejavusansbold.TTF,
	}
	parsed := make(map[string]*font.Font, len(builtin))
	for name, data := range builtin {
		f, err := parseFont(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		parsed[name] = f
	}

	r := &FontRegistry{
		families: map[string]fontPair{},
		latin:    fontPair{regular: parsed["go regular"], bold: parsed["go bold"]},
		script:   fontPair{regular: parsed["dejavu sans"], bold: parsed["dejavu bold"]},
		log:      log,
	}
	if dir == "" {
		return r, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read font dir %s: %w", dir, err)
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", e.Name(), err)
		}
		f, err := parseFont(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", e.Name(), err)
		}

		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		isBold := false
		if base, ok := strings.CutSuffix(name, "-Bold"); ok {
			name, isBold = base, true
		}
		key := strings.ToLower(name)
		pair := r.families[key]
		if isBold {
			pair.bold = f
		} else {
			pair.regular = f
		}
		r.families[key] = pair
		log.Debug("font registered", "family", name, "bold", isBold)
	}
	return r, nil
}

func parseFont(data []byte) (*font.Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return face.Font, nil
}

// chain returns the font for family/weight followed by the fallbacks, without
// duplicates. Synthetic bold is not supported: a family without a bold file
// renders its regular weight.
func (r *FontRegistry) chain(family string, weight model.FontWeight) []*font.Font {
	out := make([]*font.Font, 0, 3)
	add := func(f *font.Font) {
		if f == nil {
			return
		}
		for _, existing := range out {
			if existing == f {
				return
			}
		}
		out = append(out, f)
	}
	if pair, ok := r.families[strings.ToLower(strings.TrimSpace(family))]; ok {
		add(pair.pick(weight))
	}
	add(r.latin.pick(weight))
	add(r.script.pick(weight))
	return out
}

// textFace is a sized font chain used by one rasterization. It shapes with
// HarfBuzz so Arabic letters join and resolves the face per rune.
type textFace struct {
	faces   []*font.Face
	size    fixed.Int26_6
	ascent  float64
	descent float64 // positif, di bawah baseline
	height  float64

	last    *font.Face
	shaper  shaping.HarfbuzzShaper
	seg     shaping.Segmenter
	wrapper shaping.LineWrapper
}

// newFace builds a face chain at sizePx pixels. The size is rounded up to
// whole pixels, which is the resolution HarfBuzz scales glyphs at.
func (r *FontRegistry) newFace(family string, weight model.FontWeight, sizePx float64) *textFace {
	px := math.Max(1, math.Ceil(sizePx-1e-6))
	fonts := r.chain(family, weight)
	t := &textFace{
		faces: make([]*font.Face, len(fonts)),
		size:  fixed.I(int(px)),
	}
	for i, f := range fonts {
		t.faces[i] = font.NewFace(f)
	}

	primary := t.faces[0]
	upem := float64(primary.Upem())
	if ext, ok := primary.FontHExtents(); ok && upem > 0 {
		t.ascent = float64(ext.Ascender) * px / upem
		t.descent = -float64(ext.Descender) * px / upem
		t.height = t.ascent + t.descent + float64(ext.LineGap)*px/upem
	} else {
		t.ascent, t.descent = px*0.8, px*0.2
		t.height = px
	}
	return t
}

// ResolveFace picks the first face with a glyph for r. Neutral runes (spaces,
// punctuation, digits) stay on the previous face so runs are not split
// needlessly.
func (t *textFace) ResolveFace(r rune) *font.Face {
	if t.last != nil && !language.LookupScript(r).Strong() {
		if _, ok := t.last.NominalGlyph(r); ok {
			return t.last
		}
	}
	for _, f := range t.faces {
		if _, ok := f.NominalGlyph(r); ok {
			t.last = f
			return f
		}
	}
	return t.faces[0]
}
