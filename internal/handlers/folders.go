package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/repository"
	"github.com/RohitKattimani/MedReadApp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FoldersHandler struct {
	log *zap.Logger
}

func NewFoldersHandler(log *zap.Logger) *FoldersHandler {
	return &FoldersHandler{log: log}
}

type addFolderRequest struct {
	DriveFolderID string `json:"drive_folder_id" binding:"required"`
	FolderName    string `json:"folder_name" binding:"required"`
	Category      string `json:"category" binding:"required"`
}

// Add connects a Drive folder record to a category.
func (h *FoldersHandler) Add(c *gin.Context) {
	user := CurrentUser(c)

	var req addFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "drive_folder_id, folder_name and category are required"})
		return
	}
	if !utils.IsValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}

	folder := &models.DriveFolder{
		ID:            models.NewID("folder"),
		UserID:        user.ID,
		DriveFolderID: req.DriveFolderID,
		FolderName:    req.FolderName,
		Category:      strings.ToLower(req.Category),
		CreatedAt:     time.Now().UTC(),
	}
	if err := repository.CreateDriveFolder(c.Request.Context(), folder); err != nil {
		h.log.Error("Failed to create drive folder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not connect folder"})
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (h *FoldersHandler) List(c *gin.Context) {
	user := CurrentUser(c)
	folders, err := repository.ListDriveFolders(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("Failed to list drive folders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load folders"})
		return
	}
	c.JSON(http.StatusOK, folders)
}

// Delete removes the folder connection and the images imported from it.
func (h *FoldersHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)
	err := repository.DeleteDriveFolder(c.Request.Context(), user.ID, c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to delete drive folder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete folder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder and images deleted"})
}

// Sync acknowledges a sync request. The Drive API fetch itself is out of
// scope; images arrive through the upload endpoint.
func (h *FoldersHandler) Sync(c *gin.Context) {
	user := CurrentUser(c)
	folderID := c.Param("id")

	if _, err := repository.GetDriveFolder(c.Request.Context(), user.ID, folderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
			return
		}
		h.log.Error("Failed to fetch drive folder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sync folder"})
		return
	}

	if err := repository.MarkFolderSynced(c.Request.Context(), folderID); err != nil {
		h.log.Error("Failed to mark folder synced", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sync folder"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Folder synced",
		"folder_id": folderID,
		"note":      "Upload images manually or connect Google Drive API for auto-sync",
	})
}
