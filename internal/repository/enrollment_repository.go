package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EnrollmentRepository membaca data LMS (enrollment, user, course, progress). Read-only.
type EnrollmentRepository interface {
	FindDetail(ctx context.Context, id uuid.UUID) (*model.EnrollmentDetail, error)
	FindMigratedPendingCertificate(ctx context.Context, limit int) ([]*model.Enrollment, error)
}

type enrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) FindDetail(ctx context.Context, id uuid.UUID) (*model.EnrollmentDetail, error) {
	var e model.Enrollment
	err := r.db.GetContext(ctx, &e, `
		SELECT id, user_id, course_id, is_completed, completed_at, migrated, created_at
		FROM enrollments
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, `
		SELECT id, name, full_name_arabic, full_name_english, email, password, role, is_active, created_at, updated_at
		FROM users WHERE id = $1
	`, e.UserID); err != nil {
		return nil, err
	}

	var course model.Course
	if err := r.db.GetContext(ctx, &course, `
		SELECT id, title, title_arabic, title_english, language, instructor_name, duration_hours
		FROM courses WHERE id = $1
	`, e.CourseID); err != nil {
		return nil, err
	}

	detail := &model.EnrollmentDetail{Enrollment: e, User: &user, Course: &course}

	// Hitung ulang progress, jangan hanya percaya flag is_completed
	if err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM lessons WHERE course_id = $1),
			(SELECT COUNT(*)
			   FROM lesson_progress lp
			   JOIN lessons l ON l.id = lp.lesson_id
			  WHERE lp.enrollment_id = $2 AND lp.is_completed = TRUE AND l.course_id = $1)
	`, e.CourseID, e.ID).Scan(&detail.TotalLessons, &detail.CompletedLessons); err != nil {
		return nil, err
	}

	return detail, nil
}

// FindMigratedPendingCertificate dipakai batch generator: enrollment hasil migrasi yang sudah
// selesai tetapi belum punya sertifikat atau PDF-nya belum ter-upload.
func (r *enrollmentRepository) FindMigratedPendingCertificate(ctx context.Context, limit int) ([]*model.Enrollment, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		WITH progress AS (
			SELECT e.id,
			       (SELECT COUNT(*) FROM lessons l WHERE l.course_id = e.course_id) AS total,
			       (SELECT COUNT(*)
			          FROM lesson_progress lp
			          JOIN lessons l ON l.id = lp.lesson_id
			         WHERE lp.enrollment_id = e.id AND lp.is_completed = TRUE
			           AND l.course_id = e.course_id) AS done
			FROM enrollments e
			WHERE e.migrated = TRUE
		)
		SELECT e.id, e.user_id, e.course_id, e.is_completed, e.completed_at, e.migrated, e.created_at
		FROM enrollments e
		JOIN progress p ON p.id = e.id
		LEFT JOIN certificates c ON c.user_id = e.user_id AND c.enrollment_id = e.id
		WHERE (c.id IS NULL OR c.pdf_url IS NULL)
		  AND (e.is_completed = TRUE OR (p.total > 0 AND p.done = p.total))
		ORDER BY e.created_at
		LIMIT $1
	`
	var enrollments []*model.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, limit); err != nil {
		return nil, err
	}
	return enrollments, nil
}
