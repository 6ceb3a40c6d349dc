package handler

import (
	"net/http"

	"crowdsolve/internal/api/middleware"
	"crowdsolve/internal/app/service"
	"crowdsolve/internal/common"
	"crowdsolve/internal/platform/config"

	"github.com/go-chi/chi/v5"
)

// UploadHandler turns uploaded images into durable URLs for problem and
// solution forms.
type UploadHandler struct {
	userService *service.UserService
}

func NewUploadHandler(us *service.UserService) *UploadHandler {
	return &UploadHandler{userService: us}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/", h.uploadImage)
}

func (h *UploadHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := config.AppConfig.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "File size exceeds limit")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	url, err := h.userService.UploadImage(r.Context(),
		header.Filename, header.Header.Get("Content-Type"), header.Size, maxBytes, file)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]string{"url": url})
}
