package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// RawFields is the stored form of a template's field list. Older templates
// persisted a keyed map ({"studentName": {...}, "qrCode": {...}}) instead of
// the ordered list; both decode into RawFields and are normalized once by
// NormalizeFields.
type RawFields struct {
	List   []CertificateField
	Legacy []LegacyFieldEntry // urutan sesuai urutan key di JSON
}

type LegacyFieldEntry struct {
	Key   string
	Field LegacyField
}

// LegacyField is the value shape of the keyed-map representation.
type LegacyField struct {
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	FontSize   float64    `json:"fontSize"`
	FontFamily string     `json:"fontFamily"`
	Color      string     `json:"color"`
	TextAlign  TextAlign  `json:"textAlign"`
	FontWeight FontWeight `json:"fontWeight"`
	MaxWidth   float64    `json:"maxWidth"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Rotation   float64    `json:"rotation"`
}

var legacyKeyKinds = map[string]FieldKind{
	"studentName":    FieldStudentName,
	"courseName":     FieldCourseTitle,
	"courseTitle":    FieldCourseTitle,
	"completionDate": FieldCompletionDate,
	"duration":       FieldDuration,
	"instructor":     FieldInstructor,
	"certificateId":  FieldCertificateID,
	"qrCode":         FieldQRCode,
}

func FieldList(fields []CertificateField) RawFields {
	return RawFields{List: fields}
}

func (r RawFields) IsLegacy() bool {
	return r.Legacy != nil
}

func (r *RawFields) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = RawFields{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var list []CertificateField
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decode field list: %w", err)
		}
		*r = RawFields{List: list}
		return nil
	case '{':
		entries, err := decodeLegacyMap(trimmed)
		if err != nil {
			return err
		}
		*r = RawFields{Legacy: entries}
		return nil
	}
	return errors.New("fields must be a JSON array or object")
}

// MarshalJSON selalu menulis bentuk list supaya data lama ikut termigrasi saat disimpan ulang
func (r RawFields) MarshalJSON() ([]byte, error) {
	if r.IsLegacy() {
		fields, err := NormalizeFields(r, false)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fields)
	}
	if r.List == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.List)
}

func (r *RawFields) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = RawFields{}
		return nil
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("unsupported fields column type %T", src)
}

func (r RawFields) Value() (driver.Value, error) {
	return r.MarshalJSON()
}

func decodeLegacyMap(data []byte) ([]LegacyFieldEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // '{'
		return nil, fmt.Errorf("decode legacy fields: %w", err)
	}

	entries := []LegacyFieldEntry{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode legacy fields: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode legacy fields: unexpected token %v", tok)
		}
		var f LegacyField
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode legacy field %q: %w", key, err)
		}
		entries = append(entries, LegacyFieldEntry{Key: key, Field: f})
	}
	return entries, nil
}

// NormalizeFields converts either representation into the canonical ordered
// list and applies field defaults. With strict=false an unrecognized legacy
// key becomes a studentName field and a list entry of unknown kind is kept
// as is, for the compositor to skip; strict=true rejects both with
// ErrUnknownFieldKind.
func NormalizeFields(raw RawFields, strict bool) ([]CertificateField, error) {
	if !raw.IsLegacy() {
		out := make([]CertificateField, 0, len(raw.List))
		for i, f := range raw.List {
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d", f.Kind, i+1)
			}
			if !strict && !f.Kind.Valid() {
				out = append(out, f)
				continue
			}
			if err := f.ApplyDefaults(); err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	}

	out := make([]CertificateField, 0, len(raw.Legacy))
	for _, e := range raw.Legacy {
		kind, ok := legacyKeyKinds[e.Key]
		if !ok {
			if strict {
				return nil, fmt.Errorf("%w: legacy key %q", ErrUnknownFieldKind, e.Key)
			}
			kind = FieldStudentName
		}
		f := CertificateField{
			ID:         e.Key,
			Kind:       kind,
			X:          e.Field.X,
			Y:          e.Field.Y,
			FontSize:   e.Field.FontSize,
			FontFamily: e.Field.FontFamily,
			Color:      e.Field.Color,
			TextAlign:  e.Field.TextAlign,
			FontWeight: e.Field.FontWeight,
			MaxWidth:   e.Field.MaxWidth,
			Width:      e.Field.Width,
			Height:     e.Field.Height,
			Rotation:   e.Field.Rotation,
		}
		if err := f.ApplyDefaults(); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
