package service

import (
	"strings"
	"time"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/utils"
)

// dataSynthesizer menyusun CertificateData yang sudah dilokalisasi untuk satu bahasa template
type dataSynthesizer struct {
	instructorFallback string
}

func (d dataSynthesizer) synthesize(detail *model.EnrollmentDetail, certificateID, language string, issuedAt time.Time) model.CertificateData {
	lang := utils.NormalizeLanguage(language)
	arabic := lang == utils.LangArabic

	var user model.User
	if detail.User != nil {
		user = *detail.User
	}
	var course model.Course
	if detail.Course != nil {
		course = *detail.Course
	}

	var name, title string
	if arabic {
		name = firstNonEmpty(user.FullNameArabic, user.FullNameEnglish, &user.Name)
		title = firstNonEmpty(course.TitleArabic, course.TitleEnglish, &course.Title)
	} else {
		name = firstNonEmpty(user.FullNameEnglish, &user.Name, user.FullNameArabic)
		title = firstNonEmpty(course.TitleEnglish, &course.Title, course.TitleArabic)
	}

	completed := issuedAt
	if detail.CompletedAt != nil {
		completed = *detail.CompletedAt
	}

	duration := ""
	if course.DurationHours != nil {
		duration = utils.FormatDuration(*course.DurationHours, lang)
	}

	return model.CertificateData{
		StudentName:        name,
		CourseTitle:        title,
		CompletionDateText: utils.FormatDate(completed, lang),
		DurationText:       duration,
		InstructorText:     firstNonEmpty(course.InstructorName, &d.instructorFallback),
		CertificateID:      certificateID,
		Language:           lang,
	}
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return ""
}
