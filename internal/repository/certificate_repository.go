package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicate dikembalikan saat insert melanggar unique constraint
var ErrDuplicate = errors.New("duplicate record")

type CertificateRepository interface {
	FindByUserEnrollment(ctx context.Context, userID, enrollmentID uuid.UUID) (*model.Certificate, error)
	FindByCertificateID(ctx context.Context, certificateID string) (*model.Certificate, error)
	Create(ctx context.Context, cert *model.Certificate) error
	// SetTemplateRef mengisi referensi template untuk satu bahasa jika belum ada
	SetTemplateRef(ctx context.Context, id uuid.UUID, language string, templateID uuid.UUID) error
	UpdatePDFURL(ctx context.Context, id uuid.UUID, pdfURL string) error
}

type certificateRepository struct {
	db *sqlx.DB
}

func NewCertificateRepository(db *sqlx.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

const certificateColumns = `id, certificate_id, user_id, enrollment_id, data_snapshot, template_refs, pdf_url, created_at`

func (r *certificateRepository) FindByUserEnrollment(ctx context.Context, userID, enrollmentID uuid.UUID) (*model.Certificate, error) {
	return r.findOne(ctx, "SELECT "+certificateColumns+" FROM certificates WHERE user_id = $1 AND enrollment_id = $2",
		userID, enrollmentID)
}

func (r *certificateRepository) FindByCertificateID(ctx context.Context, certificateID string) (*model.Certificate, error) {
	return r.findOne(ctx, "SELECT "+certificateColumns+" FROM certificates WHERE certificate_id = $1", certificateID)
}

func (r *certificateRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.GetContext(ctx, &cert, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) Create(ctx context.Context, cert *model.Certificate) error {
	query := `
		INSERT INTO certificates (id, certificate_id, user_id, enrollment_id, data_snapshot, template_refs, created_at)
		VALUES (:id, :certificate_id, :user_id, :enrollment_id, :data_snapshot, :template_refs, NOW())
		RETURNING created_at
	`
	rows, err := r.db.NamedQueryContext(ctx, query, cert)
	if err != nil {
		return translateError(err)
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&cert.CreatedAt)
	}
	return translateError(rows.Err())
}

func (r *certificateRepository) SetTemplateRef(ctx context.Context, id uuid.UUID, language string, templateID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE certificates
		SET template_refs = COALESCE(template_refs, '{}'::jsonb) || jsonb_build_object($1::text, $2::text)
		WHERE id = $3 AND COALESCE(template_refs ->> $1, '') = ''
	`, language, templateID.String(), id)
	return err
}

func (r *certificateRepository) UpdatePDFURL(ctx context.Context, id uuid.UUID, pdfURL string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE certificates SET pdf_url = $1 WHERE id = $2", pdfURL, id)
	return err
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
