package repository

import (
	"context"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/database"
	"github.com/RohitKattimani/MedReadApp/internal/models"
)

type TimelineDataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type CategoryAccuracyPoint struct {
	Category string  `json:"category"`
	Total    int64   `json:"total"`
	Correct  int64   `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// GetAccuracyTimeline returns accuracy per completed session over time.
func GetAccuracyTimeline(ctx context.Context, userID uint) ([]TimelineDataPoint, error) {
	var data []TimelineDataPoint
	query := `
		SELECT
			started_at AS date,
			CASE WHEN images_reviewed > 0
				THEN correct_count::float / images_reviewed * 100
				ELSE 0
			END AS value
		FROM reading_sessions
		WHERE user_id = ? AND status = ?
		ORDER BY started_at;
	`
	err := database.DB.WithContext(ctx).Raw(query, userID, models.StatusCompleted).Scan(&data).Error
	return data, err
}

// GetAverageTimeTimeline returns mean active time per image for each
// completed session over time.
func GetAverageTimeTimeline(ctx context.Context, userID uint) ([]TimelineDataPoint, error) {
	var data []TimelineDataPoint
	query := `
		SELECT
			started_at AS date,
			CASE WHEN images_reviewed > 0
				THEN total_time_ms::float / images_reviewed
				ELSE 0
			END AS value
		FROM reading_sessions
		WHERE user_id = ? AND status = ?
		ORDER BY started_at;
	`
	err := database.DB.WithContext(ctx).Raw(query, userID, models.StatusCompleted).Scan(&data).Error
	return data, err
}

// GetCategoryAccuracy aggregates response correctness per actual category
// across all of the user's sessions.
func GetCategoryAccuracy(ctx context.Context, userID uint) ([]CategoryAccuracyPoint, error) {
	var data []CategoryAccuracyPoint
	query := `
		SELECT
			r.actual_category AS category,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE r.is_correct) AS correct,
			COUNT(*) FILTER (WHERE r.is_correct)::float / COUNT(*) * 100 AS accuracy
		FROM session_responses r
		JOIN reading_sessions s ON r.session_id = s.session_id
		WHERE s.user_id = ?
		GROUP BY r.actual_category
		ORDER BY r.actual_category;
	`
	err := database.DB.WithContext(ctx).Raw(query, userID).Scan(&data).Error
	return data, err
}
