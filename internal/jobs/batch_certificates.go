// Package jobs holds scheduled background work.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/service"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	pdfFolder  = "certificates"
	runTimeout = 10 * time.Minute
)

type PendingEnrollments interface {
	FindMigratedPendingCertificate(ctx context.Context, limit int) ([]*model.Enrollment, error)
}

type Issuer interface {
	Issue(ctx context.Context, userID, enrollmentID uuid.UUID, language string) (*model.Certificate, error)
}

type Renderer interface {
	Render(ctx context.Context, certificateID, language, format string) (*service.RenderedCertificate, error)
}

type PDFUploader interface {
	UploadPDF(ctx context.Context, folder string, data []byte, fileName string) (string, error)
}

type PDFRecorder interface {
	UpdatePDFURL(ctx context.Context, id uuid.UUID, pdfURL string) error
}

// BatchCertificates menerbitkan sertifikat untuk enrollment hasil migrasi
// lalu menyimpan PDF-nya ke object storage.
type BatchCertificates struct {
	pending  PendingEnrollments
	issuer   Issuer
	renderer Renderer
	uploader PDFUploader
	recorder PDFRecorder
	size     int
	log      *slog.Logger
}

type BatchResult struct {
	Processed int
	Issued    int
	Skipped   int
	Failed    int
}

func NewBatchCertificates(
	pending PendingEnrollments,
	issuer Issuer,
	renderer Renderer,
	uploader PDFUploader,
	recorder PDFRecorder,
	size int,
	log *slog.Logger,
) *BatchCertificates {
	return &BatchCertificates{
		pending:  pending,
		issuer:   issuer,
		renderer: renderer,
		uploader: uploader,
		recorder: recorder,
		size:     size,
		log:      log,
	}
}

// RunOnce memproses satu batch. Error per enrollment dicatat dan tidak
// menghentikan batch.
func (b *BatchCertificates) RunOnce(ctx context.Context) (BatchResult, error) {
	var res BatchResult

	enrollments, err := b.pending.FindMigratedPendingCertificate(ctx, b.size)
	if err != nil {
		return res, fmt.Errorf("load pending enrollments: %w", err)
	}

	for _, e := range enrollments {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Processed++

		err := b.process(ctx, e)
		switch {
		case err == nil:
			res.Issued++
		case errors.Is(err, service.ErrCourseNotCompleted), errors.Is(err, service.ErrTemplateNotFound):
			res.Skipped++
			b.log.Warn("batch certificate skipped", "enrollment_id", e.ID, "reason", err)
		default:
			res.Failed++
			b.log.Error("batch certificate failed", "enrollment_id", e.ID, "error", err)
		}
	}
	return res, nil
}

func (b *BatchCertificates) process(ctx context.Context, e *model.Enrollment) error {
	cert, err := b.issuer.Issue(ctx, e.UserID, e.ID, "")
	if err != nil {
		return err
	}
	if cert.PDFURL != nil {
		return nil
	}

	out, err := b.renderer.Render(ctx, cert.CertificateID, "", service.FormatPDF)
	if err != nil {
		return fmt.Errorf("render %s: %w", cert.CertificateID, err)
	}

	url, err := b.uploader.UploadPDF(ctx, pdfFolder, out.Data, out.FileName())
	if err != nil {
		return fmt.Errorf("upload %s: %w", cert.CertificateID, err)
	}
	if err := b.recorder.UpdatePDFURL(ctx, cert.ID, url); err != nil {
		return fmt.Errorf("record pdf url %s: %w", cert.CertificateID, err)
	}

	b.log.Info("batch certificate stored", "certificate_id", cert.CertificateID, "pdf_url", url)
	return nil
}

// Schedule mendaftarkan job ke cron. Schedule kosong = job dimatikan, nil dikembalikan.
// Run yang masih berjalan tidak ditumpuk.
func Schedule(ctx context.Context, cfg config.BatchConfig, job *BatchCertificates, log *slog.Logger) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		log.Info("batch certificate job disabled")
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(cfg.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		res, err := job.RunOnce(runCtx)
		if err != nil {
			log.Error("batch certificate run failed", "error", err)
			return
		}
		if res.Processed > 0 {
			log.Info("batch certificate run finished",
				"processed", res.Processed, "issued", res.Issued, "skipped", res.Skipped, "failed", res.Failed)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid batch schedule %q: %w", cfg.Schedule, err)
	}
	return c, nil
}
