package service

import (
	"context"
	"image"
	"image/color"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ahmadqo/course-certificates/internal/logger"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/render"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// --- certificates ---

type fakeCertificateRepo struct {
	mu    sync.Mutex
	certs []*model.Certificate
	// beforeCreate dipanggil sebelum insert, untuk mensimulasikan request paralel
	beforeCreate func()
	createErr    error
	refCalls     int
}

func (r *fakeCertificateRepo) FindByUserEnrollment(_ context.Context, userID, enrollmentID uuid.UUID) (*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certs {
		if c.UserID == userID && c.EnrollmentID == enrollmentID {
			return clone(c), nil
		}
	}
	return nil, nil
}

func (r *fakeCertificateRepo) FindByCertificateID(_ context.Context, certificateID string) (*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certs {
		if c.CertificateID == certificateID {
			return clone(c), nil
		}
	}
	return nil, nil
}

func (r *fakeCertificateRepo) Create(_ context.Context, cert *model.Certificate) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certs {
		if c.CertificateID == cert.CertificateID || (c.UserID == cert.UserID && c.EnrollmentID == cert.EnrollmentID) {
			return repository.ErrDuplicate
		}
	}
	r.certs = append(r.certs, clone(cert))
	return nil
}

func (r *fakeCertificateRepo) SetTemplateRef(_ context.Context, id uuid.UUID, language string, templateID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refCalls++
	for _, c := range r.certs {
		if c.ID == id {
			if c.TemplateRefs == nil {
				c.TemplateRefs = model.TemplateRefs{}
			}
			if _, ok := c.TemplateRefs[language]; !ok {
				c.TemplateRefs[language] = templateID
			}
		}
	}
	return nil
}

func (r *fakeCertificateRepo) UpdatePDFURL(_ context.Context, id uuid.UUID, pdfURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certs {
		if c.ID == id {
			c.PDFURL = &pdfURL
		}
	}
	return nil
}

func (r *fakeCertificateRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.certs)
}

func (r *fakeCertificateRepo) only(t *testing.T) *model.Certificate {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.certs, 1)
	return clone(r.certs[0])
}

func clone(c *model.Certificate) *model.Certificate {
	out := *c
	out.TemplateRefs = model.TemplateRefs{}
	for k, v := range c.TemplateRefs {
		out.TemplateRefs[k] = v
	}
	return &out
}

// --- enrollments ---

type fakeEnrollmentRepo struct {
	details  map[uuid.UUID]*model.EnrollmentDetail
	migrated []*model.Enrollment
}

func (r *fakeEnrollmentRepo) FindDetail(_ context.Context, id uuid.UUID) (*model.EnrollmentDetail, error) {
	d, ok := r.details[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *fakeEnrollmentRepo) FindMigratedPendingCertificate(_ context.Context, limit int) ([]*model.Enrollment, error) {
	if limit < len(r.migrated) {
		return r.migrated[:limit], nil
	}
	return r.migrated, nil
}

// --- templates ---

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*model.CertificateTemplate
}

func newFakeTemplateRepo(templates ...*model.CertificateTemplate) *fakeTemplateRepo {
	r := &fakeTemplateRepo{templates: map[uuid.UUID]*model.CertificateTemplate{}}
	for _, t := range templates {
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeTemplateRepo) FindAll(_ context.Context, filter model.TemplateFilter) ([]*model.CertificateTemplate, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CertificateTemplate
	for _, t := range r.templates {
		if filter.Language != "" && t.Language != filter.Language {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CertificateTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// sengaja tidak diurutkan; resolver yang menegakkan urutan
func (r *fakeTemplateRepo) FindActiveByLanguage(_ context.Context, language string) ([]*model.CertificateTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CertificateTemplate
	for _, t := range r.templates {
		if t.Language == language && t.IsActive {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) Create(_ context.Context, tpl *model.CertificateTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = tpl.CreatedAt
	cp := *tpl
	r.templates[tpl.ID] = &cp
	return nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, tpl *model.CertificateTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl.UpdatedAt = time.Now()
	cp := *tpl
	r.templates[tpl.ID] = &cp
	return nil
}

func (r *fakeTemplateRepo) UpdateBackground(_ context.Context, id uuid.UUID, ref string, width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.templates[id]
	t.BackgroundImageRef = ref
	t.BackgroundWidth = width
	t.BackgroundHeight = height
	return nil
}

func (r *fakeTemplateRepo) SetDefault(_ context.Context, id uuid.UUID, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.Language == language {
			t.IsDefault = t.ID == id
		}
	}
	r.templates[id].IsActive = true
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users []*model.User
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	cp := *user
	r.users = append(r.users, &cp)
	return nil
}

// --- render ---

type countingLoader struct {
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadBackground(_ context.Context, _ string) (image.Image, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return imaging.New(200, 141, color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}), nil
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func newTestCompositor(t *testing.T, loader render.BackgroundLoader) *render.Compositor {
	t.Helper()
	fonts, err := render.NewFontRegistry("", logger.Discard())
	require.NoError(t, err)
	return render.NewCompositor(loader, fonts, render.NewModuleEncoder(),
		render.Options{VerificationBaseURL: "https://academy.example"}, logger.Discard())
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

type fakeStore struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}}
}

func (s *fakeStore) UploadFile(_ context.Context, folder string, data []byte, _ string) (*utils.UploadResult, error) {
	key := folder + "/" + uuid.NewString() + ".png"
	s.uploads[key] = data
	return &utils.UploadResult{ObjectKey: key, FileURL: "http://minio.local/certificates/" + key, FileSize: int64(len(data))}, nil
}

func (s *fakeStore) UploadPDF(_ context.Context, folder string, data []byte, fileName string) (string, error) {
	key := folder + "/" + fileName
	s.uploads[key] = data
	return "http://minio.local/certificates/" + key, nil
}

func (s *fakeStore) DeleteFile(_ context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	delete(s.uploads, ref)
	return nil
}

// --- fixtures ---

func strPtr(s string) *string { return &s }

type fixture struct {
	userID       uuid.UUID
	enrollmentID uuid.UUID
	arTemplate   *model.CertificateTemplate
	enTemplate   *model.CertificateTemplate
	certs        *fakeCertificateRepo
	enrollments  *fakeEnrollmentRepo
	templates    *fakeTemplateRepo
	resolver     TemplateResolver
}

func testFields() model.RawFields {
	return model.FieldList([]model.CertificateField{
		{ID: "name", Kind: model.FieldStudentName, X: 400, Y: 280, FontSize: 40},
		{ID: "qr", Kind: model.FieldQRCode, X: 650, Y: 450, Width: 120, Height: 120},
	})
}

func newTemplate(name, language string, isDefault bool, created time.Time) *model.CertificateTemplate {
	return &model.CertificateTemplate{
		ID:                 uuid.New(),
		Name:               name,
		Language:           language,
		BackgroundImageRef: "backgrounds/" + name + ".png",
		IsDefault:          isDefault,
		IsActive:           true,
		RawFields:          testFields(),
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func newFixture() *fixture {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fixture{
		userID:       uuid.New(),
		enrollmentID: uuid.New(),
		arTemplate:   newTemplate("ar-default", "ar", true, base),
		enTemplate:   newTemplate("en-default", "en", true, base),
		certs:        &fakeCertificateRepo{},
	}
	completedAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	hours := 12.0
	f.enrollments = &fakeEnrollmentRepo{details: map[uuid.UUID]*model.EnrollmentDetail{
		f.enrollmentID: {
			Enrollment: model.Enrollment{
				ID: f.enrollmentID, UserID: f.userID, IsCompleted: true, CompletedAt: &completedAt,
			},
			User: &model.User{
				ID: f.userID, Name: "Muhammad Ahmad",
				FullNameArabic: strPtr("محمد أحمد"), FullNameEnglish: strPtr("Muhammad Ahmad"),
			},
			Course: &model.Course{
				Title: "Tajweed Basics", TitleArabic: strPtr("أساسيات التجويد"),
				Language: "ar", DurationHours: &hours,
			},
			TotalLessons:     10,
			CompletedLessons: 10,
		},
	}}
	f.templates = newFakeTemplateRepo(f.arTemplate, f.enTemplate)
	f.resolver = NewTemplateResolver(f.templates, false)
	return f
}

func (f *fixture) certificateService() *certificateService {
	svc := NewCertificateService(f.certs, f.enrollments, f.resolver, testCertificateConfig(), logger.Discard())
	return svc.(*certificateService)
}
