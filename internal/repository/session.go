package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/database"
	"github.com/RohitKattimani/MedReadApp/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrSessionNotActive is returned when a response or status change targets a
// session that already finished.
var ErrSessionNotActive = errors.New("session is not active")

// ErrNoImages is returned when a session is requested but the user has no
// images to read.
var ErrNoImages = errors.New("no images available")

// CreateReadingSession draws a random sample of the user's images, pins its
// order on the session, and persists it as in_progress.
func CreateReadingSession(ctx context.Context, userID uint, imageCount int) (*models.ReadingSession, []models.Image, error) {
	total, err := CountImages(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if total == 0 {
		return nil, nil, ErrNoImages
	}
	if int64(imageCount) > total {
		imageCount = int(total)
	}

	images, err := RandomImages(ctx, userID, imageCount)
	if err != nil {
		return nil, nil, err
	}

	order := make(pq.StringArray, len(images))
	for i, img := range images {
		order[i] = img.ID
	}

	session := &models.ReadingSession{
		ID:          models.NewID("session"),
		UserID:      userID,
		Status:      models.StatusInProgress,
		TotalImages: len(images),
		ImageOrder:  order,
		StartedAt:   time.Now().UTC(),
	}
	if err := database.DB.WithContext(ctx).Create(session).Error; err != nil {
		return nil, nil, err
	}
	return session, images, nil
}

func GetReadingSession(ctx context.Context, userID uint, sessionID string) (*models.ReadingSession, error) {
	var session models.ReadingSession
	result := database.DB.WithContext(ctx).First(&session, "session_id = ? AND user_id = ?", sessionID, userID)
	return &session, result.Error
}

// ListReadingSessions returns the user's sessions, newest first.
func ListReadingSessions(ctx context.Context, userID uint) ([]models.ReadingSession, error) {
	var sessions []models.ReadingSession
	err := database.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(100).
		Find(&sessions).Error
	return sessions, err
}

func ResponsesForSession(ctx context.Context, sessionID string) ([]models.SessionResponse, error) {
	var responses []models.SessionResponse
	err := database.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&responses).Error
	return responses, err
}

// SaveResponse inserts the response and bumps the session counters in one
// transaction, so reviewed/correct/time totals never drift from the rows.
func SaveResponse(ctx context.Context, response *models.SessionResponse) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"images_reviewed": gorm.Expr("images_reviewed + 1"),
			"total_time_ms":   gorm.Expr("total_time_ms + ?", response.TimeTakenMs),
		}
		if response.IsCorrect {
			updates["correct_count"] = gorm.Expr("correct_count + 1")
		}
		return tx.Model(&models.ReadingSession{}).
			Where("session_id = ?", response.SessionID).
			Updates(updates).Error
	})
}

// PauseReadingSession moves an in_progress session to paused and records when,
// so the pause span can be accounted for on resume.
func PauseReadingSession(ctx context.Context, userID uint, sessionID string) error {
	session, err := GetReadingSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.StatusInProgress {
		return ErrSessionNotActive
	}
	now := time.Now().UTC()
	return database.DB.WithContext(ctx).Model(session).Updates(map[string]interface{}{
		"status":    models.StatusPaused,
		"paused_at": now,
	}).Error
}

// ResumeReadingSession moves a paused session back to in_progress and folds
// the elapsed pause span into pause_duration_ms.
func ResumeReadingSession(ctx context.Context, userID uint, sessionID string) error {
	session, err := GetReadingSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.StatusPaused {
		return ErrSessionNotActive
	}

	updates := map[string]interface{}{
		"status":    models.StatusInProgress,
		"paused_at": nil,
	}
	if session.PausedAt != nil {
		pauseMs := time.Now().UTC().Sub(*session.PausedAt).Milliseconds()
		updates["pause_duration_ms"] = gorm.Expr("pause_duration_ms + ?", pauseMs)
	}
	return database.DB.WithContext(ctx).Model(session).Updates(updates).Error
}

func CompleteReadingSession(ctx context.Context, userID uint, sessionID string) error {
	return finishSession(ctx, userID, sessionID, models.StatusCompleted)
}

func QuitReadingSession(ctx context.Context, userID uint, sessionID string) error {
	return finishSession(ctx, userID, sessionID, models.StatusQuit)
}

func finishSession(ctx context.Context, userID uint, sessionID string, status string) error {
	now := time.Now().UTC()
	return database.DB.WithContext(ctx).Model(&models.ReadingSession{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": now,
		}).Error
}

// QuitStaleSessions marks in_progress sessions older than cutoff as quit.
// Run by the cleanup scheduler.
func QuitStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	result := database.DB.WithContext(ctx).Model(&models.ReadingSession{}).
		Where("status = ? AND started_at < ?", models.StatusInProgress, cutoff).
		Updates(map[string]interface{}{
			"status":       models.StatusQuit,
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}
