package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TemplateRepository interface {
	FindAll(ctx context.Context, filter model.TemplateFilter) ([]*model.CertificateTemplate, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CertificateTemplate, error)
	// FindActiveByLanguage mengembalikan template aktif untuk satu bahasa,
	// default lebih dulu lalu created_at terbaru.
	FindActiveByLanguage(ctx context.Context, language string) ([]*model.CertificateTemplate, error)
	Create(ctx context.Context, tpl *model.CertificateTemplate) error
	Update(ctx context.Context, tpl *model.CertificateTemplate) error
	UpdateBackground(ctx context.Context, id uuid.UUID, ref string, width, height int) error
	SetDefault(ctx context.Context, id uuid.UUID, language string) error
}

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = `id, name, language, background_image_ref, background_width, background_height,
	is_default, is_active, fields, created_by, created_at, updated_at`

func (r *templateRepository) FindAll(ctx context.Context, filter model.TemplateFilter) ([]*model.CertificateTemplate, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}

	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Language != "" {
		conditions = append(conditions, fmt.Sprintf("language = $%d", argIdx))
		args = append(args, filter.Language)
		argIdx++
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *filter.Active)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM certificate_templates WHERE %s", where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PerPage
	query := fmt.Sprintf(`
		SELECT %s
		FROM certificate_templates
		WHERE %s
		ORDER BY language, is_default DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, templateColumns, where, argIdx, argIdx+1)

	args = append(args, filter.PerPage, offset)

	var templates []*model.CertificateTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CertificateTemplate, error) {
	var tpl model.CertificateTemplate
	query := fmt.Sprintf("SELECT %s FROM certificate_templates WHERE id = $1", templateColumns)
	err := r.db.GetContext(ctx, &tpl, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) FindActiveByLanguage(ctx context.Context, language string) ([]*model.CertificateTemplate, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM certificate_templates
		WHERE language = $1 AND is_active = TRUE
		ORDER BY is_default DESC, created_at DESC
	`, templateColumns)

	var templates []*model.CertificateTemplate
	if err := r.db.SelectContext(ctx, &templates, query, language); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.CertificateTemplate) error {
	query := `
		INSERT INTO certificate_templates (id, name, language, background_image_ref, background_width,
		                                   background_height, is_default, is_active, fields, created_by,
		                                   created_at, updated_at)
		VALUES (:id, :name, :language, :background_image_ref, :background_width,
		        :background_height, :is_default, :is_active, :fields, :created_by, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	rows, err := r.db.NamedQueryContext(ctx, query, tpl)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&tpl.CreatedAt, &tpl.UpdatedAt)
	}
	return rows.Err()
}

func (r *templateRepository) Update(ctx context.Context, tpl *model.CertificateTemplate) error {
	query := `
		UPDATE certificate_templates
		SET name = :name, language = :language, background_image_ref = :background_image_ref,
		    background_width = :background_width, background_height = :background_height,
		    is_active = :is_active, fields = :fields, updated_at = NOW()
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, tpl)
	return err
}

func (r *templateRepository) UpdateBackground(ctx context.Context, id uuid.UUID, ref string, width, height int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE certificate_templates
		SET background_image_ref = $1, background_width = $2, background_height = $3, updated_at = NOW()
		WHERE id = $4
	`, ref, width, height, id)
	return err
}

// SetDefault menjadikan template default untuk bahasanya dan mencabut default lain dalam satu transaksi
func (r *templateRepository) SetDefault(ctx context.Context, id uuid.UUID, language string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE certificate_templates SET is_default = FALSE, updated_at = NOW()
		WHERE language = $1 AND is_default = TRUE AND id <> $2
	`, language, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE certificate_templates SET is_default = TRUE, is_active = TRUE, updated_at = NOW()
		WHERE id = $1
	`, id); err != nil {
		return err
	}
	return tx.Commit()
}
