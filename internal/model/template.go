package model

import (
	"time"

	"github.com/google/uuid"
)

// CertificateTemplate is a reusable background + ordered field layout.
type CertificateTemplate struct {
	ID                 uuid.UUID  `db:"id"                   json:"id"`
	Name               string     `db:"name"                 json:"name"`
	Language           string     `db:"language"             json:"language"`
	BackgroundImageRef string     `db:"background_image_ref" json:"background_image_ref"`
	BackgroundWidth    int        `db:"background_width"     json:"background_width"`
	BackgroundHeight   int        `db:"background_height"    json:"background_height"`
	IsDefault          bool       `db:"is_default"           json:"is_default"`
	IsActive           bool       `db:"is_active"            json:"is_active"`
	RawFields          RawFields  `db:"fields"               json:"-"`
	CreatedBy          *uuid.UUID `db:"created_by"           json:"created_by"`
	CreatedAt          time.Time  `db:"created_at"           json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"           json:"updated_at"`

	// Fields diisi oleh resolver setelah NormalizeFields
	Fields []CertificateField `db:"-" json:"fields"`
}

type CreateTemplateRequest struct {
	Name               string             `json:"name"                 validate:"required,max=150"`
	Language           string             `json:"language"             validate:"required,max=10"`
	BackgroundImageRef string             `json:"background_image_ref" validate:"omitempty,max=500"`
	BackgroundWidth    int                `json:"background_width"     validate:"gte=0"`
	BackgroundHeight   int                `json:"background_height"    validate:"gte=0"`
	IsDefault          bool               `json:"is_default"`
	IsActive           *bool              `json:"is_active"`
	Fields             []CertificateField `json:"fields"               validate:"dive"`
}

type UpdateTemplateRequest struct {
	Name               string             `json:"name"                 validate:"required,max=150"`
	Language           string             `json:"language"             validate:"required,max=10"`
	BackgroundImageRef string             `json:"background_image_ref" validate:"omitempty,max=500"`
	BackgroundWidth    int                `json:"background_width"     validate:"gte=0"`
	BackgroundHeight   int                `json:"background_height"    validate:"gte=0"`
	IsActive           bool               `json:"is_active"`
	Fields             []CertificateField `json:"fields"               validate:"dive"`
}

type TemplateFilter struct {
	Language string
	Active   *bool
	Page     int
	PerPage  int
}

// PreviewRequest dipakai builder untuk render tanpa menyimpan template
type PreviewRequest struct {
	BackgroundImageRef string          `json:"background_image_ref" validate:"required"`
	Language           string          `json:"language"`
	Fields             RawFields       `json:"fields"`
	Data               CertificateData `json:"data"`
	Zoom               float64         `json:"zoom"                 validate:"gte=0"`
}

type PreviewResponse struct {
	Image   string        `json:"image"` // data URI PNG
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Zoom    float64       `json:"zoom"`
	Handles []FieldHandle `json:"handles"`
}

// FieldHandle is the display-space box of one field in an editable render.
type FieldHandle struct {
	FieldID  string    `json:"field_id"`
	Kind     FieldKind `json:"kind"`
	Left     float64   `json:"left"`
	Top      float64   `json:"top"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Rotation float64   `json:"rotation"`
}

// FieldEdit is a builder edit expressed in display space at Zoom.
type FieldEdit struct {
	Field    CertificateField `json:"field"`
	Zoom     float64          `json:"zoom"     validate:"gt=0"`
	Left     float64          `json:"left"`
	Top      float64          `json:"top"`
	Width    float64          `json:"width"    validate:"gte=0"`
	Height   float64          `json:"height"   validate:"gte=0"`
	Rotation float64          `json:"rotation"`
	FontSize float64          `json:"font_size" validate:"gte=0"`
}
