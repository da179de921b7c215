package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // DecodeConfig background JPEG
	_ "image/png"  // DecodeConfig background PNG
	"log/slog"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/render"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/response"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/google/uuid"
)

var (
	ErrInvalidTemplateID = errors.New("ID template tidak valid")
	ErrInvalidBackground = errors.New("background harus berupa gambar PNG atau JPEG")
)

const (
	backgroundFolder   = "backgrounds"
	previewCertificate = "CERT-PREVIEW"
)

// BackgroundStore adalah bagian storage yang dipakai admin template
type BackgroundStore interface {
	UploadFile(ctx context.Context, folder string, data []byte, contentType string) (*utils.UploadResult, error)
	DeleteFile(ctx context.Context, ref string) error
}

type TemplateService interface {
	GetAll(ctx context.Context, filter model.TemplateFilter) ([]*model.CertificateTemplate, *response.Pagination, error)
	GetByID(ctx context.Context, id string) (*model.CertificateTemplate, error)
	Create(ctx context.Context, req model.CreateTemplateRequest, createdBy string) (*model.CertificateTemplate, error)
	Update(ctx context.Context, id string, req model.UpdateTemplateRequest) (*model.CertificateTemplate, error)
	SetDefault(ctx context.Context, id string) (*model.CertificateTemplate, error)
	UploadBackground(ctx context.Context, id string, data []byte, contentType string) (*model.CertificateTemplate, error)

	// Builder
	Preview(ctx context.Context, req model.PreviewRequest) (*model.PreviewResponse, error)
	TranslateEdit(ctx context.Context, edit model.FieldEdit) (*model.CertificateField, error)
}

type templateService struct {
	repo       repository.TemplateRepository
	resolver   TemplateResolver
	compositor *render.Compositor
	storage    BackgroundStore
	log        *slog.Logger
}

func NewTemplateService(
	repo repository.TemplateRepository,
	resolver TemplateResolver,
	compositor *render.Compositor,
	storage BackgroundStore,
	log *slog.Logger,
) TemplateService {
	return &templateService{repo: repo, resolver: resolver, compositor: compositor, storage: storage, log: log}
}

func (s *templateService) GetAll(ctx context.Context, filter model.TemplateFilter) ([]*model.CertificateTemplate, *response.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}
	filter.Language = utils.NormalizeLanguage(filter.Language)

	templates, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	// list admin tetap tampil walau ada template lama yang field-nya rusak
	for _, t := range templates {
		if fields, err := model.NormalizeFields(t.RawFields, false); err == nil {
			t.Fields = fields
		} else {
			s.log.Warn("template fields cannot be normalized", "template_id", t.ID, "error", err)
			t.Fields = []model.CertificateField{}
		}
	}

	totalPages := int(total) / filter.PerPage
	if int(total)%filter.PerPage > 0 {
		totalPages++
	}

	return templates, &response.Pagination{
		Page: filter.Page, PerPage: filter.PerPage,
		TotalItems: total, TotalPages: totalPages,
	}, nil
}

func (s *templateService) GetByID(ctx context.Context, id string) (*model.CertificateTemplate, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidTemplateID
	}
	return s.resolver.ResolveByID(ctx, uid)
}

func (s *templateService) Create(ctx context.Context, req model.CreateTemplateRequest, createdBy string) (*model.CertificateTemplate, error) {
	fields, err := model.NormalizeFields(model.FieldList(req.Fields), true)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	tpl := &model.CertificateTemplate{
		ID:                 uuid.New(),
		Name:               req.Name,
		Language:           utils.NormalizeLanguage(req.Language),
		BackgroundImageRef: req.BackgroundImageRef,
		BackgroundWidth:    req.BackgroundWidth,
		BackgroundHeight:   req.BackgroundHeight,
		IsActive:           active,
		RawFields:          model.FieldList(fields),
	}
	if uid, err := uuid.Parse(createdBy); err == nil {
		tpl.CreatedBy = &uid
	}

	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	if req.IsDefault {
		if err := s.repo.SetDefault(ctx, tpl.ID, tpl.Language); err != nil {
			return nil, err
		}
	}

	s.log.Info("certificate template created", "template_id", tpl.ID, "language", tpl.Language)
	return s.resolver.ResolveByID(ctx, tpl.ID)
}

func (s *templateService) Update(ctx context.Context, id string, req model.UpdateTemplateRequest) (*model.CertificateTemplate, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidTemplateID
	}

	tpl, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	fields, err := model.NormalizeFields(model.FieldList(req.Fields), true)
	if err != nil {
		return nil, err
	}

	oldLanguage := tpl.Language
	tpl.Name = req.Name
	tpl.Language = utils.NormalizeLanguage(req.Language)
	tpl.BackgroundImageRef = req.BackgroundImageRef
	tpl.BackgroundWidth = req.BackgroundWidth
	tpl.BackgroundHeight = req.BackgroundHeight
	tpl.IsActive = req.IsActive
	tpl.RawFields = model.FieldList(fields)

	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	// default pindah bahasa: pastikan tetap satu default per bahasa
	if tpl.IsDefault && tpl.Language != oldLanguage {
		if err := s.repo.SetDefault(ctx, tpl.ID, tpl.Language); err != nil {
			return nil, err
		}
	}

	return s.resolver.ResolveByID(ctx, uid)
}

func (s *templateService) SetDefault(ctx context.Context, id string) (*model.CertificateTemplate, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidTemplateID
	}
	tpl, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	if err := s.repo.SetDefault(ctx, uid, tpl.Language); err != nil {
		return nil, err
	}
	s.log.Info("default certificate template changed", "template_id", uid, "language", tpl.Language)
	return s.resolver.ResolveByID(ctx, uid)
}

func (s *templateService) UploadBackground(ctx context.Context, id string, data []byte, contentType string) (*model.CertificateTemplate, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidTemplateID
	}
	tpl, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackground, err)
	}

	result, err := s.storage.UploadFile(ctx, backgroundFolder, data, contentType)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBackground(ctx, uid, result.ObjectKey, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	if tpl.BackgroundImageRef != "" {
		if err := s.storage.DeleteFile(ctx, tpl.BackgroundImageRef); err != nil {
			s.log.Warn("old background not deleted", "template_id", uid, "ref", tpl.BackgroundImageRef, "error", err)
		}
	}

	return s.resolver.ResolveByID(ctx, uid)
}

func (s *templateService) Preview(ctx context.Context, req model.PreviewRequest) (*model.PreviewResponse, error) {
	fields, err := model.NormalizeFields(req.Fields, true)
	if err != nil {
		return nil, err
	}

	zoom := req.Zoom
	if zoom == 0 {
		zoom = 1
	}
	data := req.Data
	if data.CertificateID == "" {
		data.CertificateID = previewCertificate
	}

	comp, err := s.compositor.Compose(ctx, render.Request{
		BackgroundRef: req.BackgroundImageRef,
		Fields:        fields,
		Text:          render.DataText(data),
		CertificateID: data.CertificateID,
		Mode:          render.ModeEditable,
		Zoom:          zoom,
	})
	if err != nil {
		return nil, err
	}
	defer comp.Close()

	img, err := comp.Preview()
	if err != nil {
		return nil, err
	}
	handles, err := comp.Handles()
	if err != nil {
		return nil, err
	}
	png, err := render.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	return &model.PreviewResponse{
		Image:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
		Zoom:    zoom,
		Handles: handles,
	}, nil
}

func (s *templateService) TranslateEdit(_ context.Context, edit model.FieldEdit) (*model.CertificateField, error) {
	f, err := s.compositor.TranslateEdit(edit)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
