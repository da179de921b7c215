package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/service"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type fakeCertService struct {
	issueErr   error
	lastUserID uuid.UUID
	lastLang   string
}

func (f *fakeCertService) Issue(_ context.Context, userID, enrollmentID uuid.UUID, language string) (*model.Certificate, error) {
	f.lastUserID = userID
	f.lastLang = language
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &model.Certificate{
		ID: uuid.New(), CertificateID: "CERT-1-ABCDEFGHI", UserID: userID, EnrollmentID: enrollmentID,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeCertService) Verify(_ context.Context, certificateID string) (*model.VerifyResponse, error) {
	if certificateID != "CERT-1-ABCDEFGHI" {
		return &model.VerifyResponse{CertificateID: certificateID, Message: "tidak ditemukan"}, nil
	}
	now := time.Now()
	return &model.VerifyResponse{IsValid: true, CertificateID: certificateID, IssuedAt: &now, Message: "Sertifikat valid."}, nil
}

func (f *fakeCertService) VerificationURL(certificateID string) string {
	return "https://academy.example/certificates/verify/" + certificateID
}

type fakeRenderService struct{}

func (fakeRenderService) Render(_ context.Context, certificateID, language, format string) (*service.RenderedCertificate, error) {
	if certificateID != "CERT-1-ABCDEFGHI" {
		return nil, service.ErrCertificateNotFound
	}
	if language == "" {
		language = "ar"
	}
	return &service.RenderedCertificate{CertificateID: certificateID, Language: language, Format: format, Data: []byte("raster")}, nil
}

// hanya method yang dipakai test yang diimplementasikan
type fakeTemplateService struct {
	service.TemplateService
	createErr error
}

func (f *fakeTemplateService) Create(_ context.Context, req model.CreateTemplateRequest, _ string) (*model.CertificateTemplate, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &model.CertificateTemplate{ID: uuid.New(), Name: req.Name, Language: req.Language}, nil
}

type fakeAuthService struct {
	service.AuthService
}

func newTestRouter(certs *fakeCertService, templates *fakeTemplateService) http.Handler {
	return NewRouter(
		NewAuthHandler(fakeAuthService{}),
		NewTemplateHandler(templates),
		NewCertificateHandler(certs, fakeRenderService{}),
		testSecret,
		[]string{"http://localhost:3000"},
		RenderLimits{Concurrent: 4, Backlog: 8, Timeout: time.Second},
	).Setup()
}

// blockingRenderService menahan render sampai release ditutup
type blockingRenderService struct {
	entered chan struct{}
	release chan struct{}
}

func (s blockingRenderService) Render(_ context.Context, certificateID, language, format string) (*service.RenderedCertificate, error) {
	s.entered <- struct{}{}
	<-s.release
	return &service.RenderedCertificate{CertificateID: certificateID, Language: "ar", Format: format, Data: []byte("raster")}, nil
}

func bearer(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	pair, err := utils.GenerateTokenPair(model.JWTClaims{UserID: userID, Role: string(role), Email: "u@academy.example"}, testSecret, 1, 2)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func do(t *testing.T, h http.Handler, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIssue(t *testing.T) {
	certs := &fakeCertService{}
	h := newTestRouter(certs, &fakeTemplateService{})
	student := uuid.NewString()

	rec := do(t, h, http.MethodPost, "/api/v1/certificates/issue", bearer(t, student, model.RoleStudent),
		map[string]string{"enrollment_id": uuid.NewString(), "language": "en"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, student, certs.lastUserID.String())
	assert.Equal(t, "en", certs.lastLang)

	var body struct {
		Data model.IssueCertificateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CERT-1-ABCDEFGHI", body.Data.CertificateID)
	assert.Equal(t, "https://academy.example/certificates/verify/CERT-1-ABCDEFGHI", body.Data.VerificationURL)
}

func TestIssue_OnBehalfOfRequiresAdmin(t *testing.T) {
	certs := &fakeCertService{}
	h := newTestRouter(certs, &fakeTemplateService{})
	other := uuid.NewString()
	payload := map[string]string{"enrollment_id": uuid.NewString(), "user_id": other}

	rec := do(t, h, http.MethodPost, "/api/v1/certificates/issue", bearer(t, uuid.NewString(), model.RoleStudent), payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/certificates/issue", bearer(t, uuid.NewString(), model.RoleAdmin), payload)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, other, certs.lastUserID.String())
}

func TestIssue_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrCourseNotCompleted, http.StatusUnprocessableEntity},
		{service.ErrEnrollmentNotFound, http.StatusNotFound},
		{service.ErrTemplateNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newTestRouter(&fakeCertService{issueErr: tc.err}, &fakeTemplateService{})
		rec := do(t, h, http.MethodPost, "/api/v1/certificates/issue", bearer(t, uuid.NewString(), model.RoleStudent),
			map[string]string{"enrollment_id": uuid.NewString()})
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestIssue_Validation(t *testing.T) {
	h := newTestRouter(&fakeCertService{}, &fakeTemplateService{})
	auth := bearer(t, uuid.NewString(), model.RoleStudent)

	rec := do(t, h, http.MethodPost, "/api/v1/certificates/issue", auth, map[string]string{"enrollment_id": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "enrollment_id")

	rec = do(t, h, http.MethodPost, "/api/v1/certificates/issue", "", map[string]string{"enrollment_id": uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerify(t *testing.T) {
	h := newTestRouter(&fakeCertService{}, &fakeTemplateService{})

	rec := do(t, h, http.MethodGet, "/certificates/verify/CERT-1-ABCDEFGHI", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_valid":true`)

	rec = do(t, h, http.MethodGet, "/api/v1/certificates/verify/CERT-9-UNKNOWN00", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_valid":false`)
}

func TestRenderEndpoints(t *testing.T) {
	h := newTestRouter(&fakeCertService{}, &fakeTemplateService{})

	rec := do(t, h, http.MethodGet, "/api/v1/certificates/CERT-1-ABCDEFGHI/image", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "certificate-CERT-1-ABCDEFGHI-ar.png")

	rec = do(t, h, http.MethodGet, "/api/v1/certificates/CERT-1-ABCDEFGHI/pdf?lang=en", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "certificate-CERT-1-ABCDEFGHI-en.pdf")

	rec = do(t, h, http.MethodGet, "/api/v1/certificates/CERT-0-NOPE/pdf", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderEndpoints_Throttled(t *testing.T) {
	renders := blockingRenderService{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := NewRouter(
		NewAuthHandler(fakeAuthService{}),
		NewTemplateHandler(&fakeTemplateService{}),
		NewCertificateHandler(&fakeCertService{}, renders),
		testSecret,
		nil,
		RenderLimits{Concurrent: 1, Backlog: 0, Timeout: time.Second},
	).Setup()

	first := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/certificates/CERT-1-ABCDEFGHI/image", nil))
		first <- rec.Code
	}()
	<-renders.entered

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/certificates/CERT-1-ABCDEFGHI/image", http.StatusTooManyRequests},
		{"/api/v1/certificates/CERT-1-ABCDEFGHI/pdf", http.StatusTooManyRequests},
		{"/api/v1/certificates/verify/CERT-1-ABCDEFGHI", http.StatusOK},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, tt.path, "", nil)
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}

	close(renders.release)
	assert.Equal(t, http.StatusOK, <-first)

	rec := do(t, h, http.MethodGet, "/api/v1/certificates/CERT-1-ABCDEFGHI/pdf", "", nil)
	<-renders.entered
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminTemplates(t *testing.T) {
	templates := &fakeTemplateService{}
	h := newTestRouter(&fakeCertService{}, templates)
	payload := map[string]interface{}{
		"name":     "Arabic default",
		"language": "ar",
		"fields":   []map[string]interface{}{{"kind": "studentName", "x": 100, "y": 200}},
	}

	rec := do(t, h, http.MethodPost, "/api/v1/admin/templates", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/admin/templates", bearer(t, uuid.NewString(), model.RoleStudent), payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := bearer(t, uuid.NewString(), model.RoleAdmin)
	rec = do(t, h, http.MethodPost, "/api/v1/admin/templates", admin, payload)
	assert.Equal(t, http.StatusCreated, rec.Code)

	templates.createErr = model.ErrUnknownFieldKind
	rec = do(t, h, http.MethodPost, "/api/v1/admin/templates", admin, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/admin/templates", admin, map[string]interface{}{
		"name": "bad color", "language": "ar",
		"fields": []map[string]interface{}{{"kind": "studentName", "color": "red"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "fields[0].color")
}

func TestHealth(t *testing.T) {
	h := newTestRouter(&fakeCertService{}, &fakeTemplateService{})
	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
