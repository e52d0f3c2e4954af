package handlers

import (
	"net/http"

	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// UploadHandler accepts message attachments and server images.
type UploadHandler struct {
	uploadService services.UploadService
	maxUpload     int64
}

func NewUploadHandler(uploadService services.UploadService, maxUpload int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxUpload: maxUpload}
}

// Upload godoc
// POST /api/upload
// Content-Type: multipart/form-data, field "file".
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireProfile(w, r); !ok {
		return
	}

	// Room for the multipart framing on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	result, err := h.uploadService.Save(file, header)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, result)
}
