// Package render composes certificate templates into rasters. All geometry
// is kept in certificate space and scaled only at rasterization time, so a
// preview and a full-resolution export come from the same composition.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"golang.org/x/sync/errgroup"
)

type Mode int

const (
	// ModeLocked renders inert fields: no handles, edits rejected.
	ModeLocked Mode = iota
	// ModeEditable exposes per-field handles and accepts edits.
	ModeEditable
)

func (m Mode) String() string {
	if m == ModeEditable {
		return "editable"
	}
	return "locked"
}

var (
	ErrBackgroundLoadFailed = errors.New("background image could not be loaded")
	ErrCompositionLocked    = errors.New("composition is locked")
	ErrFieldNotFound        = errors.New("field not found in composition")
	ErrCompositionClosed    = errors.New("composition is closed")
)

// TextResolver returns the display text for a text-kind field.
type TextResolver func(field model.CertificateField) string

// DataText binds a resolved data record to text fields.
func DataText(data model.CertificateData) TextResolver {
	return func(field model.CertificateField) string {
		return data.Text(field.Kind)
	}
}

type Options struct {
	// VerificationBaseURL prefixes the QR payload; see utils.BuildVerificationURL.
	VerificationBaseURL string
	TextBaseline        TextBaseline
}

type Compositor struct {
	backgrounds BackgroundLoader
	fonts       *FontRegistry
	qr          QREncoder
	opts        Options
	log         *slog.Logger
}

func NewCompositor(backgrounds BackgroundLoader, fonts *FontRegistry, qr QREncoder, opts Options, log *slog.Logger) *Compositor {
	return &Compositor{
		backgrounds: backgrounds,
		fonts:       fonts,
		qr:          qr,
		opts:        opts,
		log:         log,
	}
}

// Request is one template+data pair to compose.
type Request struct {
	BackgroundRef string
	Fields        []model.CertificateField
	Text          TextResolver
	// CertificateID feeds the QR payload. Empty renders QR fields as placeholders.
	CertificateID string
	Mode          Mode
	// Zoom is the builder zoom used by Preview and Handles; 0 means 1.
	Zoom float64
}

// Compose loads the background and encodes QR fields concurrently, then
// returns a composition ready to rasterize. Field order is preserved as
// z-order regardless of load completion order.
func (c *Compositor) Compose(ctx context.Context, req Request) (*Composition, error) {
	if strings.TrimSpace(req.BackgroundRef) == "" {
		return nil, fmt.Errorf("%w: missing background reference", ErrBackgroundLoadFailed)
	}
	zoom := req.Zoom
	if zoom == 0 {
		zoom = 1
	}
	if _, err := DisplayScale(zoom); err != nil {
		return nil, err
	}
	text := req.Text
	if text == nil {
		text = DataText(model.CertificateData{})
	}

	payload := ""
	if req.CertificateID != "" {
		payload = utils.BuildVerificationURL(c.opts.VerificationBaseURL, req.CertificateID)
	}

	comp := &Composition{
		compositor: c,
		mode:       req.Mode,
		zoom:       zoom,
		placements: make([]placement, len(req.Fields)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := c.backgrounds.LoadBackground(gctx, req.BackgroundRef)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackgroundLoadFailed, err)
		}
		if img == nil || img.Bounds().Empty() {
			return fmt.Errorf("%w: empty image", ErrBackgroundLoadFailed)
		}
		comp.background = img
		return nil
	})

	for i, f := range req.Fields {
		f := f // per-iteration copy for the QR goroutine (go < 1.22 loop semantics)
		p := &comp.placements[i]
		p.field = f
		switch {
		case !f.Kind.Valid():
			p.skip = true
			c.log.Warn("skipping certificate field with unknown kind", "field_id", f.ID, "kind", f.Kind)
		case f.Kind == model.FieldQRCode:
			g.Go(func() error {
				p.symbol = c.encodeQR(payload, f.ID)
				return nil
			})
		default:
			p.text = text(f)
		}
	}

	if err := g.Wait(); err != nil {
		comp.Close()
		return nil, err
	}
	return comp, nil
}

// encodeQR never fails; a nil result renders the placeholder.
func (c *Compositor) encodeQR(payload, fieldID string) image.Image {
	if c.qr == nil {
		return nil
	}
	symbol, err := c.qr.Encode(payload)
	if err != nil {
		c.log.Warn("qr encode failed, using placeholder", "field_id", fieldID, "error", err)
		return nil
	}
	return symbol
}

// TranslateEdit converts a builder edit made at edit.Zoom back into
// certificate space. Position, rotation and box size always apply; text
// fields additionally take the edited font size.
func (c *Compositor) TranslateEdit(edit model.FieldEdit) (model.CertificateField, error) {
	s, err := DisplayScale(edit.Zoom)
	if err != nil {
		return model.CertificateField{}, err
	}

	f := edit.Field
	if err := f.ApplyDefaults(); err != nil {
		return model.CertificateField{}, err
	}

	f.X = edit.Left / s
	f.Y = edit.Top / s
	f.Rotation = edit.Rotation

	if f.Kind == model.FieldQRCode {
		if edit.Width > 0 {
			f.Width = edit.Width / s
		}
		if edit.Height > 0 {
			f.Height = edit.Height / s
		}
		return f, nil
	}

	if edit.FontSize > 0 {
		f.FontSize = edit.FontSize / s
	}
	if edit.Width > 0 {
		f.MaxWidth = edit.Width / s
	}
	if c.opts.TextBaseline == BaselineAlphabetic {
		f.Y += c.ascent(f)
	}
	return f, nil
}

// ascent is the certificate-space distance from box top to first baseline.
func (c *Compositor) ascent(f model.CertificateField) float64 {
	return c.fonts.newFace(f.FontFamily, f.FontWeight, effectiveFontSize(f.FontSize)).ascent
}
