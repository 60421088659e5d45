package repository

import (
	"context"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/database"
	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/utils"
)

// CreateUserSession issues a fresh bearer token for the user, replacing any
// existing sessions so a user holds at most one live credential.
func CreateUserSession(ctx context.Context, userID uint, ttl time.Duration) (*models.UserSession, error) {
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, err
	}

	db := database.DB.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&models.UserSession{}).Error; err != nil {
		return nil, err
	}

	session := &models.UserSession{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// GetSessionByToken resolves a bearer token to its session with the owning
// user preloaded. Callers must still check expiry.
func GetSessionByToken(ctx context.Context, token string) (*models.UserSession, error) {
	var session models.UserSession
	result := database.DB.WithContext(ctx).Preload("User").First(&session, "session_token = ?", token)
	return &session, result.Error
}

// DeleteSessionByToken revokes the credential, e.g. on logout.
func DeleteSessionByToken(ctx context.Context, token string) error {
	return database.DB.WithContext(ctx).Where("session_token = ?", token).Delete(&models.UserSession{}).Error
}

// DeleteExpiredSessions purges credentials past their expiry. Run by the
// cleanup scheduler, not on the request path.
func DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result := database.DB.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&models.UserSession{})
	return result.RowsAffected, result.Error
}
