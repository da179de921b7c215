package model

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type FieldKind string

const (
	FieldStudentName    FieldKind = "studentName"
	FieldCourseTitle    FieldKind = "courseTitle"
	FieldCompletionDate FieldKind = "completionDate"
	FieldDuration       FieldKind = "duration"
	FieldInstructor     FieldKind = "instructor"
	FieldCertificateID  FieldKind = "certificateId"
	FieldQRCode         FieldKind = "qrCode"
)

func (k FieldKind) Valid() bool {
	switch k {
	case FieldStudentName, FieldCourseTitle, FieldCompletionDate, FieldDuration,
		FieldInstructor, FieldCertificateID, FieldQRCode:
		return true
	}
	return false
}

// IsText: semua kind selain QR dirender sebagai text box
func (k FieldKind) IsText() bool {
	return k.Valid() && k != FieldQRCode
}

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

// Default typography and QR box applied by ApplyDefaults.
const (
	DefaultFontSize   = 16
	DefaultFontFamily = "Arial"
	DefaultColor      = "#000000"
	DefaultQRSize     = 150
)

var (
	ErrUnknownFieldKind = errors.New("unknown certificate field kind")
	ErrInvalidField     = errors.New("invalid certificate field")
)

// CertificateField is one placeable element of a template. Coordinates are
// always certificate space (top-left origin, y-down).
type CertificateField struct {
	ID         string     `json:"id"                   validate:"omitempty,max=64"`
	Kind       FieldKind  `json:"kind"                 validate:"required"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	FontSize   float64    `json:"fontSize,omitempty"`
	FontFamily string     `json:"fontFamily,omitempty"`
	Color      string     `json:"color,omitempty"      validate:"omitempty,hexcolor"`
	TextAlign  TextAlign  `json:"textAlign,omitempty"  validate:"omitempty,oneof=left center right"`
	FontWeight FontWeight `json:"fontWeight,omitempty" validate:"omitempty,oneof=normal bold"`
	MaxWidth   float64    `json:"maxWidth,omitempty"   validate:"gte=0"`
	Width      float64    `json:"width,omitempty"      validate:"gte=0"`
	Height     float64    `json:"height,omitempty"     validate:"gte=0"`
	Rotation   float64    `json:"rotation"`
}

// ApplyDefaults validates the field and fills the documented defaults in place.
func (f *CertificateField) ApplyDefaults() error {
	if !f.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFieldKind, f.Kind)
	}

	if f.Kind == FieldQRCode {
		if f.Width <= 0 {
			f.Width = DefaultQRSize
		}
		if f.Height <= 0 {
			f.Height = DefaultQRSize
		}
		return nil
	}

	if f.FontSize == 0 {
		f.FontSize = DefaultFontSize
	}
	if strings.TrimSpace(f.FontFamily) == "" {
		f.FontFamily = DefaultFontFamily
	}
	if f.Color == "" {
		f.Color = DefaultColor
	}
	if _, err := ParseHexColor(f.Color); err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrInvalidField, f.ID, err)
	}

	switch f.TextAlign {
	case "":
		f.TextAlign = AlignLeft
	case AlignLeft, AlignCenter, AlignRight:
	default:
		return fmt.Errorf("%w: field %s: textAlign %q", ErrInvalidField, f.ID, f.TextAlign)
	}

	switch f.FontWeight {
	case "":
		f.FontWeight = WeightNormal
	case WeightNormal, WeightBold:
	default:
		return fmt.Errorf("%w: field %s: fontWeight %q", ErrInvalidField, f.ID, f.FontWeight)
	}

	if f.MaxWidth < 0 {
		f.MaxWidth = 0
	}
	return nil
}

// ParseHexColor menerima format #RGB dan #RRGGBB
func ParseHexColor(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(hex) {
	case 3:
		v, err := strconv.ParseUint(hex, 16, 16)
		if err != nil {
			return c, fmt.Errorf("invalid color %q", s)
		}
		c.R = uint8(v>>8&0xf) * 0x11
		c.G = uint8(v>>4&0xf) * 0x11
		c.B = uint8(v&0xf) * 0x11
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return c, fmt.Errorf("invalid color %q", s)
		}
		c.R = uint8(v >> 16)
		c.G = uint8(v >> 8)
		c.B = uint8(v)
	default:
		return c, fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}
