package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/ahmadqo/course-certificates/internal/middleware"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/render"
	"github.com/ahmadqo/course-certificates/internal/response"
	"github.com/ahmadqo/course-certificates/internal/service"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/go-chi/chi/v5"
)

type TemplateHandler struct {
	svc service.TemplateService
}

func NewTemplateHandler(svc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// GetAll lists certificate templates
// @Summary      List templates
// @Tags         templates
// @Produce      json
// @Param        language  query    string  false  "Filter by language"
// @Param        active    query    bool    false  "Filter by active flag"
// @Param        page      query    int     false  "Page number"
// @Param        per_page  query    int     false  "Items per page"
// @Security     BearerAuth
// @Success      200  {object}  response.PaginatedResponse
// @Router       /admin/templates [get]
func (h *TemplateHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TemplateFilter{
		Language: q.Get("language"),
		Active:   parseBoolQuery(q.Get("active")),
		Page:     parseIntQuery(q.Get("page"), 1),
		PerPage:  parseIntQuery(q.Get("per_page"), 10),
	}

	templates, pagination, err := h.svc.GetAll(r.Context(), filter)
	if err != nil {
		response.InternalError(w, "Gagal mengambil data template")
		return
	}

	response.Paginated(w, "Data template berhasil diambil", templates, pagination)
}

// GetByID
// @Summary      Get template
// @Tags         templates
// @Produce      json
// @Param        id   path      string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.CertificateTemplate}
// @Failure      404  {object}  response.Response
// @Router       /admin/templates/{id} [get]
func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Gagal mengambil data template")
		return
	}
	response.Success(w, "Data template berhasil diambil", tpl)
}

// Create
// @Summary      Create template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateTemplateRequest  true  "Template"
// @Security     BearerAuth
// @Success      201      {object}  response.Response{data=model.CertificateTemplate}
// @Failure      400      {object}  response.Response
// @Router       /admin/templates [post]
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTemplateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Name = utils.SanitizeString(req.Name)

	tpl, err := h.svc.Create(r.Context(), req, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "Gagal menyimpan template")
		return
	}
	response.Created(w, "Template berhasil dibuat", tpl)
}

// Update
// @Summary      Update template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Template ID"
// @Param        request  body      model.UpdateTemplateRequest  true  "Template"
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=model.CertificateTemplate}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/templates/{id} [put]
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTemplateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Name = utils.SanitizeString(req.Name)

	tpl, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err, "Gagal menyimpan template")
		return
	}
	response.Success(w, "Template berhasil diperbarui", tpl)
}

// SetDefault marks the template as its language's default
// @Summary      Set default template
// @Tags         templates
// @Produce      json
// @Param        id   path      string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.CertificateTemplate}
// @Failure      404  {object}  response.Response
// @Router       /admin/templates/{id}/default [post]
func (h *TemplateHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.svc.SetDefault(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Gagal mengubah template default")
		return
	}
	response.Success(w, "Template default berhasil diubah", tpl)
}

// UploadBackground
// @Summary      Upload template background
// @Tags         templates
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Template ID"
// @Param        file  formData  file    true  "PNG or JPEG background"
// @Security     BearerAuth
// @Success      200   {object}  response.Response{data=model.CertificateTemplate}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /admin/templates/{id}/background [post]
func (h *TemplateHandler) UploadBackground(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, utils.MaxFileSize)
	if err := r.ParseMultipartForm(utils.MaxFileSize); err != nil {
		response.BadRequest(w, "File terlalu besar atau format tidak valid", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "File background tidak ditemukan dalam request", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if _, ok := utils.AllowedBackgroundTypes[contentType]; !ok {
		response.BadRequest(w, "Format background hanya JPG dan PNG", nil)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		response.InternalError(w, "Gagal membaca file")
		return
	}

	tpl, err := h.svc.UploadBackground(r.Context(), chi.URLParam(r, "id"), data, contentType)
	if err != nil {
		writeServiceError(w, err, "Gagal upload background")
		return
	}
	response.Success(w, "Background berhasil diupload", tpl)
}

// Preview renders an unsaved layout for the builder
// @Summary      Preview template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        request  body      model.PreviewRequest  true  "Layout and sample data"
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=model.PreviewResponse}
// @Failure      400      {object}  response.Response
// @Router       /admin/templates/preview [post]
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req model.PreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Preview(r.Context(), req)
	if err != nil {
		if errors.Is(err, render.ErrBackgroundLoadFailed) {
			response.BadRequest(w, err.Error(), nil)
			return
		}
		writeServiceError(w, err, "Gagal membuat preview")
		return
	}
	response.Success(w, "Preview berhasil dibuat", res)
}

// Edit converts a builder drag/resize into certificate coordinates
// @Summary      Translate builder edit
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        request  body      model.FieldEdit  true  "Display-space edit"
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=model.CertificateField}
// @Failure      400      {object}  response.Response
// @Router       /admin/templates/edit [post]
func (h *TemplateHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req model.FieldEdit
	if !decodeAndValidate(w, r, &req) {
		return
	}

	field, err := h.svc.TranslateEdit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Gagal memproses perubahan field")
		return
	}
	response.Success(w, "Field berhasil diperbarui", field)
}
