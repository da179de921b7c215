package database

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/render"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAdminEmail    = "admin@academy.local"
	defaultAdminPassword = "Admin@123"
	seedBackgroundFolder = "backgrounds"
)

// BackgroundUploader menyimpan background template hasil generate
type BackgroundUploader interface {
	UploadFile(ctx context.Context, folder string, data []byte, contentType string) (*utils.UploadResult, error)
}

type Seeder struct {
	db        *sqlx.DB
	templates repository.TemplateRepository
	log       *slog.Logger
}

func NewSeeder(db *sqlx.DB, templates repository.TemplateRepository, log *slog.Logger) *Seeder {
	return &Seeder{db: db, templates: templates, log: log}
}

// SeedAdminUser membuat user admin default jika belum ada
func (s *Seeder) SeedAdminUser(ctx context.Context) error {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE role = 'admin'"); err != nil {
		return err
	}
	if count > 0 {
		s.log.Debug("admin user already exists, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
	`, uuid.New(), "Administrator", defaultAdminEmail, string(hashed), model.RoleAdmin)
	if err != nil {
		return err
	}

	s.log.Warn("default admin user created, change the password after first login", "email", defaultAdminEmail)
	return nil
}

// SeedDefaultTemplates membuat template default ar dan en jika bahasa itu belum punya template aktif
func (s *Seeder) SeedDefaultTemplates(ctx context.Context, uploader BackgroundUploader) error {
	for _, lang := range []string{utils.LangArabic, utils.LangEnglish} {
		existing, err := s.templates.FindActiveByLanguage(ctx, lang)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}

		bg, err := plainBackground()
		if err != nil {
			return err
		}
		uploaded, err := uploader.UploadFile(ctx, seedBackgroundFolder, bg, "image/png")
		if err != nil {
			return fmt.Errorf("upload seed background: %w", err)
		}

		tpl := &model.CertificateTemplate{
			ID:                 uuid.New(),
			Name:               "Default " + lang,
			Language:           lang,
			BackgroundImageRef: uploaded.ObjectKey,
			BackgroundWidth:    render.CertWidth,
			BackgroundHeight:   render.CertHeight,
			IsActive:           true,
			RawFields:          model.FieldList(defaultLayout(lang)),
		}
		if err := s.templates.Create(ctx, tpl); err != nil {
			return err
		}
		if err := s.templates.SetDefault(ctx, tpl.ID, lang); err != nil {
			return err
		}
		s.log.Info("default certificate template seeded", "language", lang, "template_id", tpl.ID)
	}
	return nil
}

func defaultLayout(lang string) []model.CertificateField {
	align := model.AlignCenter
	idAlign := model.AlignLeft
	if lang == utils.LangArabic {
		idAlign = model.AlignRight
	}
	return []model.CertificateField{
		{ID: "course", Kind: model.FieldCourseTitle, X: 500, Y: 420, MaxWidth: 1000, FontSize: 56, FontWeight: model.WeightBold, TextAlign: align, Color: "#1f2a44"},
		{ID: "name", Kind: model.FieldStudentName, X: 500, Y: 620, MaxWidth: 1000, FontSize: 72, FontWeight: model.WeightBold, TextAlign: align, Color: "#1f2a44"},
		{ID: "date", Kind: model.FieldCompletionDate, X: 500, Y: 820, MaxWidth: 1000, FontSize: 36, TextAlign: align, Color: "#444444"},
		{ID: "duration", Kind: model.FieldDuration, X: 500, Y: 900, MaxWidth: 1000, FontSize: 32, TextAlign: align, Color: "#444444"},
		{ID: "instructor", Kind: model.FieldInstructor, X: 1300, Y: 1150, MaxWidth: 500, FontSize: 32, TextAlign: align, Color: "#1f2a44"},
		{ID: "qr", Kind: model.FieldQRCode, X: 150, Y: 980, Width: 200, Height: 200},
		{ID: "certificate-id", Kind: model.FieldCertificateID, X: 150, Y: 1220, MaxWidth: 600, FontSize: 24, TextAlign: idAlign, Color: "#666666"},
	}
}

// plainBackground: bingkai emas sederhana ukuran sertifikat
func plainBackground() ([]byte, error) {
	frame := imaging.New(render.CertWidth, render.CertHeight, color.NRGBA{R: 0xb8, G: 0x93, B: 0x3d, A: 0xff})
	inner := imaging.New(render.CertWidth-80, render.CertHeight-80, color.NRGBA{R: 0xfd, G: 0xfb, B: 0xf4, A: 0xff})
	bg := imaging.Paste(frame, inner, image.Pt(40, 40))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, bg, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
