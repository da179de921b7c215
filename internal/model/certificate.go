package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CertificateData is the resolved, language-specific snapshot bound into
// field slots at render time. All values are pre-localized strings.
type CertificateData struct {
	StudentName        string `json:"studentName"`
	CourseTitle        string `json:"courseTitle"`
	CompletionDateText string `json:"completionDate"`
	DurationText       string `json:"duration,omitempty"`
	InstructorText     string `json:"instructor,omitempty"`
	CertificateID      string `json:"certificateId"`
	Language           string `json:"language"`
}

// Text returns the value bound to a text field kind.
func (d CertificateData) Text(kind FieldKind) string {
	switch kind {
	case FieldStudentName:
		return d.StudentName
	case FieldCourseTitle:
		return d.CourseTitle
	case FieldCompletionDate:
		return d.CompletionDateText
	case FieldDuration:
		return d.DurationText
	case FieldInstructor:
		return d.InstructorText
	case FieldCertificateID:
		return d.CertificateID
	}
	return ""
}

func (d *CertificateData) Scan(src interface{}) error {
	return scanJSON(src, d)
}

func (d CertificateData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// TemplateRefs maps a language to the template that served it.
type TemplateRefs map[string]uuid.UUID

func (t *TemplateRefs) Scan(src interface{}) error {
	if src == nil {
		*t = TemplateRefs{}
		return nil
	}
	return scanJSON(src, t)
}

func (t TemplateRefs) Value() (driver.Value, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}

type Certificate struct {
	ID            uuid.UUID       `db:"id"             json:"id"`
	CertificateID string          `db:"certificate_id" json:"certificate_id"`
	UserID        uuid.UUID       `db:"user_id"        json:"user_id"`
	EnrollmentID  uuid.UUID       `db:"enrollment_id"  json:"enrollment_id"`
	DataSnapshot  CertificateData `db:"data_snapshot"  json:"data_snapshot"`
	TemplateRefs  TemplateRefs    `db:"template_refs"  json:"template_refs"`
	PDFURL        *string         `db:"pdf_url"        json:"pdf_url"`
	CreatedAt     time.Time       `db:"created_at"     json:"created_at"`
}

type IssueCertificateRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required,uuid"`
	UserID       string `json:"user_id"       validate:"omitempty,uuid"` // hanya admin
	Language     string `json:"language"      validate:"omitempty,max=10"`
}

type IssueCertificateResponse struct {
	CertificateID   string       `json:"certificate_id"`
	VerificationURL string       `json:"verification_url"`
	Certificate     *Certificate `json:"certificate"`
}

// VerifyResponse untuk endpoint publik verifikasi QR
type VerifyResponse struct {
	IsValid       bool             `json:"is_valid"`
	CertificateID string           `json:"certificate_id"`
	IssuedAt      *time.Time       `json:"issued_at,omitempty"`
	Data          *CertificateData `json:"data,omitempty"`
	Message       string           `json:"message"`
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("unsupported json column type %T", src)
}
