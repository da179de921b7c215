package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/render"
	"github.com/ahmadqo/course-certificates/internal/response"
	"github.com/ahmadqo/course-certificates/internal/service"
	"github.com/ahmadqo/course-certificates/internal/utils"
)

func parseIntQuery(s string, defaultVal int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}

func parseBoolQuery(s string) *bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

// decodeAndValidate menulis 400 dan mengembalikan false jika body tidak valid
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		response.BadRequest(w, "Format request tidak valid", err.Error())
		return false
	}
	if errs := utils.ValidateStruct(dst); errs.HasErrors() {
		response.BadRequest(w, "Validasi gagal", errs)
		return false
	}
	return true
}

// writeServiceError memetakan sentinel error service ke status HTTP
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCertificateNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound),
		errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrCourseNotCompleted):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, service.ErrInvalidTemplateID),
		errors.Is(err, service.ErrInvalidBackground),
		errors.Is(err, model.ErrUnknownFieldKind),
		errors.Is(err, model.ErrInvalidField),
		errors.Is(err, render.ErrInvalidZoom),
		errors.Is(err, render.ErrInvalidMultiplier),
		errors.Is(err, render.ErrFieldNotFound):
		response.BadRequest(w, err.Error(), nil)
	default:
		response.InternalError(w, fallback)
	}
}
