package repository

import (
	"context"

	"github.com/RohitKattimani/MedReadApp/internal/database"
	"github.com/RohitKattimani/MedReadApp/internal/models"
)

func CreateImage(ctx context.Context, image *models.Image) error {
	return database.DB.WithContext(ctx).Create(image).Error
}

// ListImages returns the user's images, optionally filtered by category.
func ListImages(ctx context.Context, userID uint, category string) ([]models.Image, error) {
	var images []models.Image
	query := database.DB.WithContext(ctx).Where("user_id = ?", userID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Order("created_at DESC").Find(&images).Error
	return images, err
}

func GetImage(ctx context.Context, imageID string) (*models.Image, error) {
	var image models.Image
	result := database.DB.WithContext(ctx).First(&image, "image_id = ?", imageID)
	return &image, result.Error
}

// GetImagesByIDs fetches the given images and returns them in the order of
// ids, so a session's pinned image order survives the round trip.
func GetImagesByIDs(ctx context.Context, ids []string) ([]models.Image, error) {
	var images []models.Image
	if err := database.DB.WithContext(ctx).Where("image_id IN ?", []string(ids)).Find(&images).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Image, len(images))
	for _, img := range images {
		byID[img.ID] = img
	}
	ordered := make([]models.Image, 0, len(ids))
	for _, id := range ids {
		if img, ok := byID[id]; ok {
			ordered = append(ordered, img)
		}
	}
	return ordered, nil
}

// DeleteImage removes an image owned by userID. Returns the number of rows
// deleted so callers can distinguish "not found".
func DeleteImage(ctx context.Context, userID uint, imageID string) (int64, error) {
	result := database.DB.WithContext(ctx).
		Where("image_id = ? AND user_id = ?", imageID, userID).
		Delete(&models.Image{})
	return result.RowsAffected, result.Error
}

// RandomImages draws a uniform random sample of the user's images.
func RandomImages(ctx context.Context, userID uint, count int) ([]models.Image, error) {
	var images []models.Image
	err := database.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("RANDOM()").
		Limit(count).
		Find(&images).Error
	return images, err
}

func CountImages(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := database.DB.WithContext(ctx).Model(&models.Image{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CategoryStats aggregates image counts per category for the user.
func CategoryStats(ctx context.Context, userID uint) ([]models.CategoryStat, error) {
	var stats []models.CategoryStat
	err := database.DB.WithContext(ctx).Model(&models.Image{}).
		Select("category, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Order("category").
		Scan(&stats).Error
	return stats, err
}

// Categories lists the distinct category labels the user has images for.
func Categories(ctx context.Context, userID uint) ([]string, error) {
	var categories []string
	err := database.DB.WithContext(ctx).Model(&models.Image{}).
		Distinct("category").
		Where("user_id = ?", userID).
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}
