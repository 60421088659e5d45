package repository

import (
	"context"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/database"
	"github.com/RohitKattimani/MedReadApp/internal/models"

	"gorm.io/gorm"
)

func CreateDriveFolder(ctx context.Context, folder *models.DriveFolder) error {
	return database.DB.WithContext(ctx).Create(folder).Error
}

func ListDriveFolders(ctx context.Context, userID uint) ([]models.DriveFolder, error) {
	var folders []models.DriveFolder
	err := database.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&folders).Error
	return folders, err
}

func GetDriveFolder(ctx context.Context, userID uint, folderID string) (*models.DriveFolder, error) {
	var folder models.DriveFolder
	result := database.DB.WithContext(ctx).First(&folder, "folder_id = ? AND user_id = ?", folderID, userID)
	return &folder, result.Error
}

// DeleteDriveFolder removes the folder record and every image imported from it.
func DeleteDriveFolder(ctx context.Context, userID uint, folderID string) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var folder models.DriveFolder
		if err := tx.First(&folder, "folder_id = ? AND user_id = ?", folderID, userID).Error; err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", folderID).Delete(&models.DriveFolder{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND drive_folder_id = ?", userID, folder.DriveFolderID).
			Delete(&models.Image{}).Error
	})
}

// MarkFolderSynced stamps the folder's synced_at. The actual Drive fetch is
// out of scope; this keeps the record's bookkeeping consistent.
func MarkFolderSynced(ctx context.Context, folderID string) error {
	now := time.Now().UTC()
	return database.DB.WithContext(ctx).Model(&models.DriveFolder{}).
		Where("folder_id = ?", folderID).
		Update("synced_at", now).Error
}
