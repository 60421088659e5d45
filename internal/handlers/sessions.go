package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/config"
	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SessionsHandler struct {
	log *zap.Logger
}

func NewSessionsHandler(log *zap.Logger) *SessionsHandler {
	return &SessionsHandler{log: log}
}

type startSessionRequest struct {
	ImageCount int `json:"image_count"`
}

// Start creates a reading session over a random sample of the user's images
// and returns the session with its ordered, redacted image list.
func (h *SessionsHandler) Start(c *gin.Context) {
	user := CurrentUser(c)

	var req startSessionRequest
	// Body is optional; an empty body means the configured default count.
	_ = c.ShouldBindJSON(&req)
	if req.ImageCount <= 0 {
		req.ImageCount = config.Conf.Reading.DefaultImageCount
	}

	session, images, err := repository.CreateReadingSession(c.Request.Context(), user.ID, req.ImageCount)
	if errors.Is(err, repository.ErrNoImages) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No images available. Please upload images first."})
		return
	}
	if err != nil {
		h.log.Error("Failed to start reading session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
		return
	}

	redacted := make([]models.Image, len(images))
	for i, img := range images {
		redacted[i] = img.Redacted()
	}

	c.JSON(http.StatusOK, models.SessionBundle{Session: session, Images: redacted})
}

// Get returns a session with its ordered images and prior responses, enough
// for a client to resume after a reload.
func (h *SessionsHandler) Get(c *gin.Context) {
	user := CurrentUser(c)

	session, err := repository.GetReadingSession(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		h.notFoundOrError(c, err, "Failed to fetch session")
		return
	}

	images, err := repository.GetImagesByIDs(c.Request.Context(), session.ImageOrder)
	if err != nil {
		h.log.Error("Failed to fetch session images", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}
	responses, err := repository.ResponsesForSession(c.Request.Context(), session.ID)
	if err != nil {
		h.log.Error("Failed to fetch session responses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	// Redact labels only while the session can still take responses.
	if session.Active() {
		for i := range images {
			images[i] = images[i].Redacted()
		}
	}

	c.JSON(http.StatusOK, models.SessionBundle{Session: session, Images: images, Responses: responses})
}

// List returns the user's session history, newest first.
func (h *SessionsHandler) List(c *gin.Context) {
	user := CurrentUser(c)
	sessions, err := repository.ListReadingSessions(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("Failed to list sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// SubmitResponse scores a diagnosis against the image's ground-truth category
// and records it. One response per image per session, enforced by a unique
// index.
func (h *SessionsHandler) SubmitResponse(c *gin.Context) {
	user := CurrentUser(c)

	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_id and diagnosis are required"})
		return
	}

	session, err := repository.GetReadingSession(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		h.notFoundOrError(c, err, "Failed to fetch session for response")
		return
	}
	if !session.Active() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session is not active"})
		return
	}

	image, err := repository.GetImage(c.Request.Context(), req.ImageID)
	if err != nil {
		h.notFoundOrError(c, err, "Failed to fetch image for response")
		return
	}

	diagnosis := strings.ToLower(strings.TrimSpace(req.Diagnosis))
	actual := strings.ToLower(image.Category)

	response := &models.SessionResponse{
		ID:             models.NewID("resp"),
		SessionID:      session.ID,
		ImageID:        image.ID,
		UserDiagnosis:  diagnosis,
		ActualCategory: actual,
		IsCorrect:      diagnosis == actual,
		TimeTakenMs:    req.TimeTakenMs,
		CreatedAt:      time.Now().UTC(),
	}

	if err := repository.SaveResponse(c.Request.Context(), response); err != nil {
		h.log.Error("Failed to save response", zap.Error(err), zap.String("session_id", session.ID))
		c.JSON(http.StatusConflict, gin.H{"error": "could not record response"})
		return
	}

	c.JSON(http.StatusOK, models.SubmitResult{
		ResponseID:     response.ID,
		IsCorrect:      response.IsCorrect,
		ActualCategory: response.ActualCategory,
	})
}

func (h *SessionsHandler) Pause(c *gin.Context) {
	h.changeStatus(c, repository.PauseReadingSession, "Session paused")
}

func (h *SessionsHandler) Resume(c *gin.Context) {
	h.changeStatus(c, repository.ResumeReadingSession, "Session resumed")
}

// Complete finalizes the session and returns it with all responses.
func (h *SessionsHandler) Complete(c *gin.Context) {
	user := CurrentUser(c)
	sessionID := c.Param("id")

	if err := repository.CompleteReadingSession(c.Request.Context(), user.ID, sessionID); err != nil {
		h.notFoundOrError(c, err, "Failed to complete session")
		return
	}

	session, err := repository.GetReadingSession(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		h.notFoundOrError(c, err, "Failed to fetch completed session")
		return
	}
	responses, err := repository.ResponsesForSession(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error("Failed to fetch responses for completed session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	c.JSON(http.StatusOK, models.SessionBundle{Session: session, Responses: responses})
}

func (h *SessionsHandler) Quit(c *gin.Context) {
	user := CurrentUser(c)
	if err := repository.QuitReadingSession(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		h.notFoundOrError(c, err, "Failed to quit session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session quit"})
}

func (h *SessionsHandler) changeStatus(c *gin.Context, change func(ctx context.Context, userID uint, sessionID string) error, message string) {
	user := CurrentUser(c)
	err := change(c.Request.Context(), user.ID, c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrSessionNotActive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session is not in the required state"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case err != nil:
		h.log.Error("Failed to change session status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update session"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}

func (h *SessionsHandler) notFoundOrError(c *gin.Context, err error, logMsg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.log.Error(logMsg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
