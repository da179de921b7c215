package handler

import (
	"net/http"

	"github.com/ahmadqo/course-certificates/internal/middleware"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/response"
	"github.com/ahmadqo/course-certificates/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CertificateHandler struct {
	svc    service.CertificateService
	render service.RenderService
}

func NewCertificateHandler(svc service.CertificateService, render service.RenderService) *CertificateHandler {
	return &CertificateHandler{svc: svc, render: render}
}

// Issue issues (or returns the existing) certificate for an enrollment
// @Summary      Issue a certificate
// @Description  Idempotent per user and enrollment. Admins may issue on behalf of user_id.
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Param        request  body      model.IssueCertificateRequest  true  "Issue request"
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=model.IssueCertificateResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /certificates/issue [post]
func (h *CertificateHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req model.IssueCertificateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	callerID := middleware.GetUserIDFromContext(r.Context())
	userRef := callerID
	if req.UserID != "" && req.UserID != callerID {
		if !middleware.IsAdmin(r.Context()) {
			response.Forbidden(w, "Hanya admin yang dapat menerbitkan sertifikat untuk user lain")
			return
		}
		userRef = req.UserID
	}

	userID, err := uuid.Parse(userRef)
	if err != nil {
		response.Unauthorized(w, "User tidak terautentikasi")
		return
	}
	enrollmentID, err := uuid.Parse(req.EnrollmentID)
	if err != nil {
		response.BadRequest(w, "Validasi gagal", map[string]string{"enrollment_id": "harus berupa UUID"})
		return
	}

	cert, err := h.svc.Issue(r.Context(), userID, enrollmentID, req.Language)
	if err != nil {
		writeServiceError(w, err, "Gagal menerbitkan sertifikat")
		return
	}

	response.Success(w, "Sertifikat berhasil diterbitkan", model.IssueCertificateResponse{
		CertificateID:   cert.CertificateID,
		VerificationURL: h.svc.VerificationURL(cert.CertificateID),
		Certificate:     cert,
	})
}

// Verify checks a certificate id from a scanned QR code
// @Summary      Verify a certificate
// @Tags         public
// @Produce      json
// @Param        id   path      string  true  "Certificate ID (CERT-...)"
// @Success      200  {object}  response.Response{data=model.VerifyResponse}
// @Failure      404  {object}  response.Response{data=model.VerifyResponse}
// @Router       /certificates/verify/{id} [get]
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.svc.Verify(r.Context(), id)
	if err != nil {
		response.InternalError(w, "Gagal memverifikasi sertifikat")
		return
	}
	if !result.IsValid {
		response.JSON(w, http.StatusNotFound, false, result.Message, result)
		return
	}

	response.Success(w, result.Message, result)
}

// Image renders the certificate as PNG
// @Summary      Certificate image
// @Tags         certificates
// @Produce      image/png
// @Param        id    path      string  true   "Certificate ID"
// @Param        lang  query     string  false  "Language (default: issued language)"
// @Success      200   {file}    file
// @Failure      404   {object}  response.Response
// @Router       /certificates/{id}/image [get]
func (h *CertificateHandler) Image(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.FormatPNG)
}

// PDF renders the certificate as a single-page PDF
// @Summary      Certificate PDF
// @Tags         certificates
// @Produce      application/pdf
// @Param        id    path      string  true   "Certificate ID"
// @Param        lang  query     string  false  "Language (default: issued language)"
// @Success      200   {file}    file
// @Failure      404   {object}  response.Response
// @Router       /certificates/{id}/pdf [get]
func (h *CertificateHandler) PDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.FormatPDF)
}

func (h *CertificateHandler) serve(w http.ResponseWriter, r *http.Request, format string) {
	id := chi.URLParam(r, "id")

	out, err := h.render.Render(r.Context(), id, r.URL.Query().Get("lang"), format)
	if err != nil {
		writeServiceError(w, err, "Gagal merender sertifikat")
		return
	}

	response.File(w, out.ContentType(), out.FileName(), out.Data)
}
