package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/ahmadqo/course-certificates/internal/logger"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPending []*model.Enrollment

func (s stubPending) FindMigratedPendingCertificate(_ context.Context, limit int) ([]*model.Enrollment, error) {
	if limit < len(s) {
		return s[:limit], nil
	}
	return s, nil
}

type stubIssuer struct {
	errs  map[uuid.UUID]error
	certs map[uuid.UUID]*model.Certificate
}

func (s *stubIssuer) Issue(_ context.Context, userID, enrollmentID uuid.UUID, language string) (*model.Certificate, error) {
	if err := s.errs[enrollmentID]; err != nil {
		return nil, err
	}
	if c, ok := s.certs[enrollmentID]; ok {
		return c, nil
	}
	c := &model.Certificate{ID: uuid.New(), CertificateID: "CERT-1-" + enrollmentID.String()[:9], UserID: userID, EnrollmentID: enrollmentID}
	s.certs[enrollmentID] = c
	return c, nil
}

type stubRenderer struct{ calls int }

func (s *stubRenderer) Render(_ context.Context, certificateID, language, format string) (*service.RenderedCertificate, error) {
	s.calls++
	return &service.RenderedCertificate{CertificateID: certificateID, Language: "ar", Format: format, Data: []byte("%PDF-1.3")}, nil
}

type stubStore struct {
	files map[string][]byte
	urls  map[uuid.UUID]string
}

func (s *stubStore) UploadPDF(_ context.Context, folder string, data []byte, fileName string) (string, error) {
	key := folder + "/" + fileName
	s.files[key] = data
	return "http://minio.local/" + key, nil
}

func (s *stubStore) UpdatePDFURL(_ context.Context, id uuid.UUID, pdfURL string) error {
	s.urls[id] = pdfURL
	return nil
}

func TestBatchCertificates_RunOnce(t *testing.T) {
	ok := &model.Enrollment{ID: uuid.New(), UserID: uuid.New()}
	notDone := &model.Enrollment{ID: uuid.New(), UserID: uuid.New()}
	broken := &model.Enrollment{ID: uuid.New(), UserID: uuid.New()}
	stored := "http://minio.local/certificates/old.pdf"
	done := &model.Enrollment{ID: uuid.New(), UserID: uuid.New()}

	issuer := &stubIssuer{
		errs: map[uuid.UUID]error{
			notDone.ID: service.ErrCourseNotCompleted,
			broken.ID:  errors.New("db down"),
		},
		certs: map[uuid.UUID]*model.Certificate{
			done.ID: {ID: uuid.New(), CertificateID: "CERT-1-DONE00000", PDFURL: &stored},
		},
	}
	renderer := &stubRenderer{}
	store := &stubStore{files: map[string][]byte{}, urls: map[uuid.UUID]string{}}

	job := NewBatchCertificates(stubPending{ok, notDone, broken, done}, issuer, renderer, store, store, 10, logger.Discard())
	res, err := job.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Processed: 4, Issued: 2, Skipped: 1, Failed: 1}, res)
	assert.Equal(t, 1, renderer.calls, "stored PDFs are not rendered again")

	cert := issuer.certs[ok.ID]
	require.NotNil(t, cert)
	fileName := "certificates/certificate-" + cert.CertificateID + "-ar.pdf"
	assert.Contains(t, store.files, fileName)
	assert.Equal(t, "http://minio.local/"+fileName, store.urls[cert.ID])
}

func TestBatchCertificates_RespectsSize(t *testing.T) {
	pending := stubPending{
		{ID: uuid.New(), UserID: uuid.New()},
		{ID: uuid.New(), UserID: uuid.New()},
		{ID: uuid.New(), UserID: uuid.New()},
	}
	store := &stubStore{files: map[string][]byte{}, urls: map[uuid.UUID]string{}}
	job := NewBatchCertificates(pending, &stubIssuer{certs: map[uuid.UUID]*model.Certificate{}}, &stubRenderer{}, store, store, 2, logger.Discard())

	res, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
}

func TestSchedule(t *testing.T) {
	job := NewBatchCertificates(stubPending{}, nil, nil, nil, nil, 10, logger.Discard())

	c, err := Schedule(context.Background(), config.BatchConfig{}, job, logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = Schedule(context.Background(), config.BatchConfig{Schedule: "@every 10m"}, job, logger.Discard())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Len(t, c.Entries(), 1)

	_, err = Schedule(context.Background(), config.BatchConfig{Schedule: "not a schedule"}, job, logger.Discard())
	assert.Error(t, err)
}
