package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmadqo/course-certificates/internal/cache"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/render"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/utils"
)

const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// RenderedCertificate adalah hasil render siap kirim
type RenderedCertificate struct {
	CertificateID string
	Language      string
	Format        string
	Data          []byte
}

func (r *RenderedCertificate) ContentType() string {
	if r.Format == FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}

// FileName: certificate-{certificateId}-{language}.{ext}
func (r *RenderedCertificate) FileName() string {
	return fmt.Sprintf("certificate-%s-%s.%s", r.CertificateID, r.Language, r.Format)
}

type RenderService interface {
	// Render menghasilkan PNG atau PDF sertifikat dalam bahasa tertentu (kosong = bahasa snapshot)
	Render(ctx context.Context, certificateID, language, format string) (*RenderedCertificate, error)
}

type renderService struct {
	certs       repository.CertificateRepository
	enrollments repository.EnrollmentRepository
	resolver    TemplateResolver
	compositor  *render.Compositor
	cache       cache.RenderCache
	data        dataSynthesizer
	log         *slog.Logger
}

func NewRenderService(
	certs repository.CertificateRepository,
	enrollments repository.EnrollmentRepository,
	resolver TemplateResolver,
	compositor *render.Compositor,
	renderCache cache.RenderCache,
	instructorFallback string,
	log *slog.Logger,
) RenderService {
	if renderCache == nil {
		renderCache = cache.Nop{}
	}
	return &renderService{
		certs:       certs,
		enrollments: enrollments,
		resolver:    resolver,
		compositor:  compositor,
		cache:       renderCache,
		data:        dataSynthesizer{instructorFallback: instructorFallback},
		log:         log,
	}
}

func (s *renderService) Render(ctx context.Context, certificateID, language, format string) (*RenderedCertificate, error) {
	if format != FormatPNG && format != FormatPDF {
		return nil, fmt.Errorf("unsupported render format %q", format)
	}

	cert, err := s.certs.FindByCertificateID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, ErrCertificateNotFound
	}

	lang := utils.NormalizeLanguage(language)
	if lang == "" {
		lang = cert.DataSnapshot.Language
	}

	tpl, err := s.templateFor(ctx, cert, lang)
	if err != nil {
		return nil, err
	}

	out := &RenderedCertificate{CertificateID: cert.CertificateID, Language: lang, Format: format}
	key := cache.Key(cert.CertificateID, lang, format, tpl.UpdatedAt)
	if data, ok := s.cache.Get(ctx, key); ok {
		out.Data = data
		return out, nil
	}

	data, err := s.dataFor(ctx, cert, lang)
	if err != nil {
		return nil, err
	}

	png, err := s.rasterize(ctx, tpl, data, cert.CertificateID)
	if err != nil {
		return nil, err
	}

	out.Data = png
	if format == FormatPDF {
		if out.Data, err = utils.FlattenToPDF(png); err != nil {
			return nil, err
		}
	}

	s.cache.Set(ctx, key, out.Data)
	return out, nil
}

// templateFor memakai referensi template yang tersimpan untuk bahasa itu; jika belum ada,
// resolve default bahasa lalu simpan referensinya.
func (s *renderService) templateFor(ctx context.Context, cert *model.Certificate, lang string) (*model.CertificateTemplate, error) {
	if ref, ok := cert.TemplateRefs[lang]; ok {
		tpl, err := s.resolver.ResolveByID(ctx, ref)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return nil, err
		}
		s.log.Warn("bound template missing, falling back to language default",
			"certificate_id", cert.CertificateID, "language", lang, "template_id", ref)
	}

	tpl, err := s.resolver.ResolveByLanguageDefault(ctx, lang)
	if err != nil {
		return nil, err
	}

	if _, ok := cert.TemplateRefs[lang]; !ok {
		if err := s.certs.SetTemplateRef(ctx, cert.ID, lang, tpl.ID); err != nil {
			s.log.Warn("template ref backfill failed",
				"certificate_id", cert.CertificateID, "language", lang, "error", err)
		} else {
			if cert.TemplateRefs == nil {
				cert.TemplateRefs = model.TemplateRefs{}
			}
			cert.TemplateRefs[lang] = tpl.ID
		}
	}
	return tpl, nil
}

// dataFor memakai snapshot jika bahasanya sama, selain itu menyusun ulang data
// untuk bahasa yang diminta dengan certificateId yang sama.
func (s *renderService) dataFor(ctx context.Context, cert *model.Certificate, lang string) (model.CertificateData, error) {
	if cert.DataSnapshot.Language == lang {
		return cert.DataSnapshot, nil
	}

	detail, err := s.enrollments.FindDetail(ctx, cert.EnrollmentID)
	if err != nil {
		return model.CertificateData{}, fmt.Errorf("load enrollment: %w", err)
	}
	if detail == nil {
		s.log.Warn("enrollment missing, rendering snapshot data",
			"certificate_id", cert.CertificateID, "language", lang)
		data := cert.DataSnapshot
		data.Language = lang
		return data, nil
	}
	return s.data.synthesize(detail, cert.CertificateID, lang, cert.CreatedAt), nil
}

func (s *renderService) rasterize(ctx context.Context, tpl *model.CertificateTemplate, data model.CertificateData, certificateID string) ([]byte, error) {
	comp, err := s.compositor.Compose(ctx, render.Request{
		BackgroundRef: tpl.BackgroundImageRef,
		Fields:        tpl.Fields,
		Text:          render.DataText(data),
		CertificateID: certificateID,
		Mode:          render.ModeLocked,
	})
	if err != nil {
		return nil, err
	}
	defer comp.Close()

	img, err := comp.Export(render.ExportMultiplier())
	if err != nil {
		return nil, err
	}
	return render.EncodePNG(img)
}
