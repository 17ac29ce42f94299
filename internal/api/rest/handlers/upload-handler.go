package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/SundayYogurt/trainer_service/internal/helper"
	"github.com/SundayYogurt/trainer_service/internal/helper/utils"
	"github.com/SundayYogurt/trainer_service/internal/services"
	pkgutils "github.com/SundayYogurt/trainer_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const maxPhotoSize = 5 * 1024 * 1024 // 5MB

var allowedPhotoExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type UploadResponse struct {
	URL string `json:"url"`
}

type UploadHandler struct {
	svc services.TrainerService
}

func NewUploadHandler(svc services.TrainerService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// POST /api/admin/trainers/:id/photo
// form-data: file=<image>
func (h *UploadHandler) UploadTrainerPhoto(c *fiber.Ctx) error {
	id, err := helper.ParamID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ResponseError(c, fiber.StatusBadRequest, "file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExt[ext] {
		return utils.ResponseError(c, fiber.StatusBadRequest, "only jpg/jpeg/png/webp allowed")
	}
	if file.Size > maxPhotoSize {
		return utils.ResponseError(c, fiber.StatusBadRequest, "file too large (max 5MB)")
	}

	f, err := file.Open()
	if err != nil {
		return utils.ResponseError(c, fiber.StatusInternalServerError, "cannot open uploaded file")
	}
	defer f.Close()

	data, err := pkgutils.ReadAllLimit(f, maxPhotoSize)
	if errors.Is(err, pkgutils.ErrTooLarge) {
		return utils.ResponseError(c, fiber.StatusBadRequest, "file too large (max 5MB)")
	}
	if err != nil {
		return utils.ResponseError(c, fiber.StatusInternalServerError, "cannot read uploaded file")
	}

	url, err := h.svc.UploadPhoto(c.UserContext(), id, data)
	if err != nil {
		return writeError(c, err)
	}
	return utils.ResponseSuccess(c, fiber.StatusOK, UploadResponse{URL: url})
}
