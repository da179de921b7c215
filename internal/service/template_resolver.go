package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/google/uuid"
)

var ErrTemplateNotFound = errors.New("template sertifikat tidak ditemukan")

// TemplateResolver memilih template yang dipakai untuk render. Semua template
// yang dikembalikan sudah dinormalisasi (Fields terisi, bentuk legacy dikonversi).
type TemplateResolver interface {
	// ResolveByLanguageDefault: template aktif untuk bahasa, default lebih dulu, terbaru lebih dulu
	ResolveByLanguageDefault(ctx context.Context, language string) (*model.CertificateTemplate, error)
	// ResolveDefault hanya menerima template yang default dan aktif untuk bahasa tersebut
	ResolveDefault(ctx context.Context, language string) (*model.CertificateTemplate, error)
	ResolveByID(ctx context.Context, id uuid.UUID) (*model.CertificateTemplate, error)
}

type templateResolver struct {
	repo   repository.TemplateRepository
	strict bool
}

func NewTemplateResolver(repo repository.TemplateRepository, strictFields bool) TemplateResolver {
	return &templateResolver{repo: repo, strict: strictFields}
}

func (r *templateResolver) ResolveByLanguageDefault(ctx context.Context, language string) (*model.CertificateTemplate, error) {
	candidates, err := r.active(ctx, language)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: language %q", ErrTemplateNotFound, language)
	}
	return r.normalize(candidates[0])
}

func (r *templateResolver) ResolveDefault(ctx context.Context, language string) (*model.CertificateTemplate, error) {
	candidates, err := r.active(ctx, language)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 || !candidates[0].IsDefault {
		return nil, fmt.Errorf("%w: no default template for language %q", ErrTemplateNotFound, language)
	}
	return r.normalize(candidates[0])
}

func (r *templateResolver) ResolveByID(ctx context.Context, id uuid.UUID) (*model.CertificateTemplate, error) {
	tpl, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: id %s", ErrTemplateNotFound, id)
	}
	return r.normalize(tpl)
}

// active mengembalikan kandidat terurut: is_default DESC, created_at DESC.
// Urutan ditegakkan di sini juga, tidak hanya di SQL, karena data lama bisa
// punya lebih dari satu default per bahasa.
func (r *templateResolver) active(ctx context.Context, language string) ([]*model.CertificateTemplate, error) {
	list, err := r.repo.FindActiveByLanguage(ctx, utils.NormalizeLanguage(language))
	if err != nil {
		return nil, err
	}
	out := make([]*model.CertificateTemplate, 0, len(list))
	for _, t := range list {
		if t != nil && t.IsActive {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *templateResolver) normalize(tpl *model.CertificateTemplate) (*model.CertificateTemplate, error) {
	fields, err := model.NormalizeFields(tpl.RawFields, r.strict)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", tpl.ID, err)
	}
	out := *tpl
	out.Fields = fields
	return &out, nil
}
