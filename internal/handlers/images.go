package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/config"
	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/repository"
	"github.com/RohitKattimani/MedReadApp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single image upload at 16 MB.
const maxUploadBytes = 16 << 20

type ImagesHandler struct {
	log        *zap.Logger
	Categories *models.Categories
}

func NewImagesHandler(log *zap.Logger, categories *models.Categories) *ImagesHandler {
	return &ImagesHandler{log: log, Categories: categories}
}

// List returns the user's images, optionally filtered by ?category=.
func (h *ImagesHandler) List(c *gin.Context) {
	user := CurrentUser(c)
	images, err := repository.ListImages(c.Request.Context(), user.ID, strings.ToLower(c.Query("category")))
	if err != nil {
		h.log.Error("Failed to list images", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load images"})
		return
	}
	c.JSON(http.StatusOK, images)
}

// Upload stores a multipart image with its ground-truth category. The payload
// is kept as a base64 data URL, matching what session clients render.
func (h *ImagesHandler) Upload(c *gin.Context) {
	user := CurrentUser(c)

	category := strings.ToLower(c.PostForm("category"))
	if !utils.IsValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.log.Error("Failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	image := &models.Image{
		ID:        models.NewID("img"),
		UserID:    user.ID,
		Filename:  fileHeader.Filename,
		Category:  category,
		Source:    models.SourceUpload,
		Data:      fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(content)),
		CreatedAt: time.Now().UTC(),
	}

	if err := repository.CreateImage(c.Request.Context(), image); err != nil {
		h.log.Error("Failed to store image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store image"})
		return
	}

	c.JSON(http.StatusOK, image)
}

func (h *ImagesHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)
	deleted, err := repository.DeleteImage(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to delete image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete image"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}

// Random returns a random sample of the user's images for ad-hoc review.
// Categories are redacted; the label is only revealed through a session
// response.
func (h *ImagesHandler) Random(c *gin.Context) {
	user := CurrentUser(c)

	count := config.Conf.Reading.DefaultImageCount
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be a positive integer"})
			return
		}
		count = parsed
	}

	images, err := repository.RandomImages(c.Request.Context(), user.ID, count)
	if err != nil {
		h.log.Error("Failed to sample images", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load images"})
		return
	}

	redacted := make([]models.Image, len(images))
	for i, img := range images {
		redacted[i] = img.Redacted()
	}
	c.JSON(http.StatusOK, redacted)
}

// Stats returns per-category image counts and the total.
func (h *ImagesHandler) Stats(c *gin.Context) {
	user := CurrentUser(c)
	stats, err := repository.CategoryStats(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("Failed to aggregate image stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}

	var total int64
	for _, s := range stats {
		total += s.Count
	}
	c.JSON(http.StatusOK, gin.H{"categories": stats, "total": total})
}

// ListCategories returns the distinct categories the user has images for.
func (h *ImagesHandler) ListCategories(c *gin.Context) {
	user := CurrentUser(c)
	categories, err := repository.Categories(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("Failed to list categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CategoryPresets returns the fixed diagnosis choices from categories.yaml.
func (h *ImagesHandler) CategoryPresets(c *gin.Context) {
	c.JSON(http.StatusOK, h.Categories.Presets)
}
