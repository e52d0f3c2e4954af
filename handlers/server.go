package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// ServerHandler serves /api/servers and /api/setup.
type ServerHandler struct {
	serverService services.ServerService
	uploadService services.UploadService
	maxUpload     int64
}

func NewServerHandler(serverService services.ServerService, uploadService services.UploadService, maxUpload int64) *ServerHandler {
	return &ServerHandler{
		serverService: serverService,
		uploadService: uploadService,
		maxUpload:     maxUpload,
	}
}

// List godoc
// GET /api/servers
func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	servers, err := h.serverService.ListByProfile(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, servers)
}

// Create godoc
// POST /api/servers
// Body: {"name": "...", "imageUrl": "..."}
func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	var req models.CreateServerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.serverService.Create(r.Context(), profile, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, result)
}

// Get godoc
// GET /api/servers/{serverId}
func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	server, err := h.serverService.Get(r.Context(), member)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}

// Update godoc
// PATCH /api/servers/{serverId}
//
// Accepts JSON {"name", "imageUrl"} or multipart/form-data with "name" and
// an optional "imageFile". Other content types get 415.
func (h *ServerHandler) Update(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var req models.UpdateServerRequest
	switch mediaType {
	case "application/json":
		if !decodeJSON(w, r, &req) {
			return
		}

	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		req.Name = r.FormValue("name")

		file, header, err := r.FormFile("imageFile")
		if err == nil {
			defer file.Close()
			if err := h.serverService.CheckUpdate(r.Context(), member, &req); err != nil {
				writeError(w, err)
				return
			}
			uploaded, err := h.uploadService.Save(file, header)
			if err != nil {
				writeError(w, err)
				return
			}
			req.ImageURL = uploaded.URL
		} else if err != http.ErrMissingFile {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid image file")
			return
		}

	default:
		pkg.ErrorWithMessage(w, http.StatusUnsupportedMediaType, "unsupported content type")
		return
	}

	server, err := h.serverService.Update(r.Context(), member, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}

// RegenerateInviteCode godoc
// PATCH /api/servers/{serverId}/invite-code
func (h *ServerHandler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	server, err := h.serverService.RegenerateInviteCode(r.Context(), member)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}

// Leave godoc
// PATCH /api/servers/{serverId}/leave
// Runs without the membership middleware: a non-member gets 400.
func (h *ServerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	servers, err := h.serverService.Leave(r.Context(), profile.ID, strings.TrimSpace(r.PathValue("serverId")))
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, servers)
}

// Delete godoc
// DELETE /api/servers/{serverId}
func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	if err := h.serverService.Delete(r.Context(), member); err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "server deleted"})
}

// Setup godoc
// GET /api/setup
// The first server of the caller, where the client lands after login.
func (h *ServerHandler) Setup(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}

	server, err := h.serverService.Setup(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, server)
}
