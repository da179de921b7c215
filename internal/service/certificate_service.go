package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/google/uuid"
)

var (
	ErrCertificateNotFound = errors.New("sertifikat tidak ditemukan")
	ErrEnrollmentNotFound  = errors.New("enrollment tidak ditemukan")
	ErrCourseNotCompleted  = errors.New("kursus belum diselesaikan")
)

type CertificateService interface {
	// Issue idempoten per (user, enrollment): pemanggilan berikutnya, dengan bahasa apa pun,
	// mengembalikan sertifikat yang sama.
	Issue(ctx context.Context, userID, enrollmentID uuid.UUID, language string) (*model.Certificate, error)
	Verify(ctx context.Context, certificateID string) (*model.VerifyResponse, error)
	VerificationURL(certificateID string) string
}

type certificateService struct {
	repo        repository.CertificateRepository
	enrollments repository.EnrollmentRepository
	resolver    TemplateResolver
	data        dataSynthesizer
	cfg         config.CertificateConfig
	log         *slog.Logger
	now         func() time.Time
}

func NewCertificateService(
	repo repository.CertificateRepository,
	enrollments repository.EnrollmentRepository,
	resolver TemplateResolver,
	cfg config.CertificateConfig,
	log *slog.Logger,
) CertificateService {
	return &certificateService{
		repo:        repo,
		enrollments: enrollments,
		resolver:    resolver,
		data:        dataSynthesizer{instructorFallback: cfg.InstructorFallback},
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

func (s *certificateService) Issue(ctx context.Context, userID, enrollmentID uuid.UUID, language string) (*model.Certificate, error) {
	detail, err := s.enrollments.FindDetail(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if detail == nil || detail.UserID != userID {
		return nil, ErrEnrollmentNotFound
	}

	// Sertifikat yang sudah ada selalu dikembalikan apa adanya, termasuk jika
	// progress dihitung ulang setelah terbit.
	existing, err := s.repo.FindByUserEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if !detail.Completed() {
		return nil, ErrCourseNotCompleted
	}

	tpl, err := s.resolveTemplate(ctx, detail, language)
	if err != nil {
		return nil, err
	}

	now := s.now()
	certificateID, err := utils.GenerateCertificateID(now)
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		ID:            uuid.New(),
		CertificateID: certificateID,
		UserID:        userID,
		EnrollmentID:  enrollmentID,
		DataSnapshot:  s.data.synthesize(detail, certificateID, tpl.Language, now),
		TemplateRefs:  model.TemplateRefs{utils.NormalizeLanguage(tpl.Language): tpl.ID},
		CreatedAt:     now,
	}

	if err := s.repo.Create(ctx, cert); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create certificate: %w", err)
		}
		// request paralel untuk enrollment yang sama menang duluan
		winner, err := s.repo.FindByUserEnrollment(ctx, userID, enrollmentID)
		if err != nil {
			return nil, fmt.Errorf("load certificate after conflict: %w", err)
		}
		if winner == nil {
			return nil, fmt.Errorf("create certificate: %w", repository.ErrDuplicate)
		}
		return winner, nil
	}

	s.log.Info("certificate issued",
		"certificate_id", cert.CertificateID,
		"user_id", userID,
		"enrollment_id", enrollmentID,
		"language", cert.DataSnapshot.Language,
		"template_id", tpl.ID,
	)
	return cert, nil
}

// resolveTemplate: bahasa eksplisit wajib punya template default+aktif untuk bahasa itu;
// tanpa bahasa, pakai bahasa kursus lalu bahasa default konfigurasi.
func (s *certificateService) resolveTemplate(ctx context.Context, detail *model.EnrollmentDetail, language string) (*model.CertificateTemplate, error) {
	if lang := utils.NormalizeLanguage(language); lang != "" {
		return s.resolver.ResolveDefault(ctx, lang)
	}

	lang := s.cfg.DefaultLanguage
	if detail.Course != nil && detail.Course.Language != "" {
		lang = detail.Course.Language
	}
	return s.resolver.ResolveByLanguageDefault(ctx, lang)
}

func (s *certificateService) Verify(ctx context.Context, certificateID string) (*model.VerifyResponse, error) {
	cert, err := s.repo.FindByCertificateID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return &model.VerifyResponse{
			IsValid:       false,
			CertificateID: certificateID,
			Message:       "Sertifikat tidak ditemukan. Dokumen ini mungkin tidak sah.",
		}, nil
	}

	issuedAt := cert.CreatedAt
	data := cert.DataSnapshot
	return &model.VerifyResponse{
		IsValid:       true,
		CertificateID: cert.CertificateID,
		IssuedAt:      &issuedAt,
		Data:          &data,
		Message:       "Sertifikat valid.",
	}, nil
}

func (s *certificateService) VerificationURL(certificateID string) string {
	return utils.BuildVerificationURL(s.cfg.PublicAppURL, certificateID)
}
