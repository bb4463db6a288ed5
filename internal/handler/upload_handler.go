package handler

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/piteam/pi_api/internal/service"
	"github.com/piteam/pi_api/internal/utils"
)

var folderPattern = regexp.MustCompile(`[^a-zA-Z0-9/_-]`)

// UploadHandler handles direct file uploads to the media store.
type UploadHandler struct {
	media *service.MediaService
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(media *service.MediaService) *UploadHandler {
	return &UploadHandler{media: media}
}

// Upload handles POST /api/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, 400, utils.ErrValidation.Error(), `No file provided. Ensure the form field is named "file".`)
		return
	}

	if !h.media.Enabled() {
		utils.Error(c, 503, utils.ErrStorageDisabled.Error(), "Server upload not configured. Set the storage credentials in the backend environment.")
		return
	}

	folder := folderPattern.ReplaceAllString(c.PostForm("folder"), "")
	if folder == "" {
		folder = "general"
	}
	safeName := fileNamePattern.ReplaceAllString(file.Filename, "_")
	if safeName == "" {
		safeName = "file"
	}
	key := fmt.Sprintf("%s/%d-%s", folder, time.Now().UnixMilli(), safeName)

	src, err := file.Open()
	if err != nil {
		utils.Error(c, 400, utils.ErrValidation.Error(), "Failed to read uploaded file")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		utils.Error(c, 400, utils.ErrValidation.Error(), "Failed to read uploaded file")
		return
	}

	url, err := h.media.Upload(c.Request.Context(), key, data, file.Header.Get("Content-Type"))
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("file upload failed")
		utils.Error(c, 500, utils.ErrMediaFailure.Error(), "Failed to upload file")
		return
	}

	utils.Success(c, 200, "File uploaded", gin.H{
		"url":      url,
		"fileName": key,
	})
}
