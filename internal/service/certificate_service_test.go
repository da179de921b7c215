package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var certificateIDPattern = regexp.MustCompile(`^CERT-\d+-[0-9A-Z]{9}$`)

func testCertificateConfig() config.CertificateConfig {
	return config.CertificateConfig{
		PublicAppURL:       "https://academy.example/",
		InstructorFallback: "Academy Instructor",
		DefaultLanguage:    "ar",
	}
}

func TestIssue_CreatesSnapshotAndBindsTemplate(t *testing.T) {
	f := newFixture()
	svc := f.certificateService()
	svc.now = func() time.Time { return time.UnixMilli(1709632800000) }

	cert, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "")
	require.NoError(t, err)

	assert.Regexp(t, certificateIDPattern, cert.CertificateID)
	assert.Contains(t, cert.CertificateID, "CERT-1709632800000-")
	assert.Equal(t, "ar", cert.DataSnapshot.Language)
	assert.Equal(t, "محمد أحمد", cert.DataSnapshot.StudentName)
	assert.Equal(t, "أساسيات التجويد", cert.DataSnapshot.CourseTitle)
	assert.Equal(t, "Academy Instructor", cert.DataSnapshot.InstructorText)
	assert.Equal(t, cert.CertificateID, cert.DataSnapshot.CertificateID)
	assert.Equal(t, model.TemplateRefs{"ar": f.arTemplate.ID}, cert.TemplateRefs)
	assert.Equal(t, 1, f.certs.count())
}

func TestIssue_IsIdempotentAcrossLanguages(t *testing.T) {
	f := newFixture()
	svc := f.certificateService()
	ctx := context.Background()

	first, err := svc.Issue(ctx, f.userID, f.enrollmentID, "ar")
	require.NoError(t, err)
	again, err := svc.Issue(ctx, f.userID, f.enrollmentID, "ar")
	require.NoError(t, err)
	noLang, err := svc.Issue(ctx, f.userID, f.enrollmentID, "")
	require.NoError(t, err)
	english, err := svc.Issue(ctx, f.userID, f.enrollmentID, "en")
	require.NoError(t, err)

	assert.Equal(t, first.CertificateID, again.CertificateID)
	assert.Equal(t, first.CertificateID, noLang.CertificateID)
	assert.Equal(t, first.CertificateID, english.CertificateID)
	assert.Equal(t, "ar", english.DataSnapshot.Language, "existing certificate is returned unchanged")
	assert.Equal(t, 1, f.certs.count())
}

func TestIssue_ExplicitLanguageWithoutDefaultTemplate(t *testing.T) {
	f := newFixture()
	svc := f.certificateService()

	_, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "fr")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Equal(t, 0, f.certs.count())
}

func TestIssue_ExplicitLanguageRequiresDefault(t *testing.T) {
	f := newFixture()
	f.enTemplate.IsDefault = false
	svc := f.certificateService()

	_, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "en")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Equal(t, 0, f.certs.count())
}

func TestIssue_UsesCourseLanguageThenConfigDefault(t *testing.T) {
	f := newFixture()
	f.enrollments.details[f.enrollmentID].Course.Language = "en"
	svc := f.certificateService()

	cert, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "")
	require.NoError(t, err)
	assert.Equal(t, "en", cert.DataSnapshot.Language)
	assert.Equal(t, "Muhammad Ahmad", cert.DataSnapshot.StudentName)
	assert.Equal(t, "Tajweed Basics", cert.DataSnapshot.CourseTitle)
	assert.Equal(t, model.TemplateRefs{"en": f.enTemplate.ID}, cert.TemplateRefs)
}

func TestIssue_CourseNotCompleted(t *testing.T) {
	f := newFixture()
	d := f.enrollments.details[f.enrollmentID]
	d.IsCompleted = false
	d.CompletedLessons = 7
	svc := f.certificateService()

	_, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "")
	assert.ErrorIs(t, err, ErrCourseNotCompleted)
	assert.Equal(t, 0, f.certs.count())
}

func TestIssue_CompletedByLessonProgress(t *testing.T) {
	f := newFixture()
	f.enrollments.details[f.enrollmentID].IsCompleted = false
	svc := f.certificateService()

	_, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "")
	assert.NoError(t, err)
}

func TestIssue_ExistingSurvivesProgressRecompute(t *testing.T) {
	f := newFixture()
	svc := f.certificateService()
	ctx := context.Background()

	first, err := svc.Issue(ctx, f.userID, f.enrollmentID, "")
	require.NoError(t, err)

	// lesson baru ditambahkan ke kursus setelah sertifikat terbit
	d := f.enrollments.details[f.enrollmentID]
	d.IsCompleted = false
	d.TotalLessons = 12

	second, err := svc.Issue(ctx, f.userID, f.enrollmentID, "")
	require.NoError(t, err)
	assert.Equal(t, first.CertificateID, second.CertificateID)
	assert.Equal(t, 1, f.certs.count())
}

func TestIssue_EnrollmentOwnership(t *testing.T) {
	f := newFixture()
	svc := f.certificateService()

	_, err := svc.Issue(context.Background(), uuid.New(), f.enrollmentID, "")
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)

	_, err = svc.Issue(context.Background(), f.userID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestIssue_ConcurrentWinnerReturned(t *testing.T) {
	f := newFixture()
	winner := &model.Certificate{
		ID:            uuid.New(),
		CertificateID: "CERT-1700000000000-WINNER001",
		UserID:        f.userID,
		EnrollmentID:  f.enrollmentID,
		DataSnapshot:  model.CertificateData{Language: "ar", CertificateID: "CERT-1700000000000-WINNER001"},
	}
	f.certs.beforeCreate = func() {
		f.certs.beforeCreate = nil
		f.certs.mu.Lock()
		f.certs.certs = append(f.certs.certs, winner)
		f.certs.mu.Unlock()
	}
	svc := f.certificateService()

	cert, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "")
	require.NoError(t, err)
	assert.Equal(t, winner.CertificateID, cert.CertificateID)
	assert.Equal(t, 1, f.certs.count())
}

func TestIssue_DuplicateWithoutWinner(t *testing.T) {
	f := newFixture()
	// bentrok certificate_id, bukan (user, enrollment)
	f.certs.createErr = repository.ErrDuplicate
	svc := f.certificateService()

	_, err := svc.Issue(context.Background(), f.userID, f.enrollmentID, "")
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Equal(t, 0, f.certs.count())
}

func TestVerify(t *testing.T) {
	f := newFixture()
	svc := f.certificateService()
	ctx := context.Background()

	cert, err := svc.Issue(ctx, f.userID, f.enrollmentID, "")
	require.NoError(t, err)

	res, err := svc.Verify(ctx, cert.CertificateID)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	require.NotNil(t, res.Data)
	assert.Equal(t, "محمد أحمد", res.Data.StudentName)
	assert.NotNil(t, res.IssuedAt)

	res, err = svc.Verify(ctx, "CERT-0-NOTEXISTS")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Nil(t, res.Data)
	assert.Equal(t, "CERT-0-NOTEXISTS", res.CertificateID)
}

func TestVerificationURL(t *testing.T) {
	svc := newFixture().certificateService()
	assert.Equal(t, "https://academy.example/certificates/verify/CERT-1-ABC", svc.VerificationURL("CERT-1-ABC"))
}
