package model

import (
	"time"

	"github.com/google/uuid"
)

// Course, Enrollment dan progress dimiliki platform LMS; service ini hanya membaca.
type Course struct {
	ID             uuid.UUID `db:"id"              json:"id"`
	Title          string    `db:"title"           json:"title"`
	TitleArabic    *string   `db:"title_arabic"    json:"title_arabic"`
	TitleEnglish   *string   `db:"title_english"   json:"title_english"`
	Language       string    `db:"language"        json:"language"`
	InstructorName *string   `db:"instructor_name" json:"instructor_name"`
	DurationHours  *float64  `db:"duration_hours"  json:"duration_hours"`
}

type Enrollment struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	UserID      uuid.UUID  `db:"user_id"      json:"user_id"`
	CourseID    uuid.UUID  `db:"course_id"    json:"course_id"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
	Migrated    bool       `db:"migrated"     json:"migrated"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
}

// EnrollmentDetail bundles everything issuance needs about one enrollment.
type EnrollmentDetail struct {
	Enrollment
	User             *User   `json:"user"`
	Course           *Course `json:"course"`
	TotalLessons     int     `json:"total_lessons"`
	CompletedLessons int     `json:"completed_lessons"`
}

// Completed accepts either the stored flag or a full lesson-progress count;
// migrated rows may carry only one of the two.
func (e *EnrollmentDetail) Completed() bool {
	if e.IsCompleted {
		return true
	}
	return e.TotalLessons > 0 && e.CompletedLessons == e.TotalLessons
}
