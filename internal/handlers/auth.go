package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/config"
	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/repository"
	"github.com/RohitKattimani/MedReadApp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionCookieName = "session_token"

type AuthHandler struct {
	log *zap.Logger
	// httpClient performs the provider exchange; swapped out in tests.
	httpClient *http.Client
}

func NewAuthHandler(log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		log:        log,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func tokenTTL() time.Duration {
	return time.Duration(config.Conf.Auth.TokenTTLDays) * 24 * time.Hour
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// Register creates a local account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and name are required"})
		return
	}
	if !utils.IsValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		return
	}
	if !utils.IsComplexPassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password does not meet complexity requirements"})
		return
	}

	user, err := repository.CreateUser(strings.ToLower(req.Email), req.Password, req.Name)
	if err != nil {
		h.log.Error("Failed to create user", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "could not register account"})
		return
	}

	h.issueSession(c, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a local account and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := repository.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil || !user.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	h.issueSession(c, user)
}

type sessionExchangeRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// providerIdentity is the payload returned by the external auth provider.
type providerIdentity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// SessionExchange trades a provider session_id for a MedRead bearer token,
// creating the account on first sight.
func (h *AuthHandler) SessionExchange(c *gin.Context) {
	var req sessionExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	providerURL := config.Conf.Auth.ProviderURL
	if providerURL == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no identity provider configured"})
		return
	}

	identity, err := h.fetchProviderIdentity(c, providerURL, req.SessionID)
	if err != nil {
		h.log.Warn("Provider exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session_id"})
		return
	}

	user, err := repository.UpsertProviderUser(c.Request.Context(), strings.ToLower(identity.Email), identity.Name, identity.Picture)
	if err != nil {
		h.log.Error("Failed to upsert provider user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	h.issueSession(c, user)
}

func (h *AuthHandler) fetchProviderIdentity(c *gin.Context, providerURL, sessionID string) (*providerIdentity, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, providerURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var identity providerIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("provider response missing email")
	}
	return &identity, nil
}

// issueSession creates the bearer credential, sets the cookie, and returns
// the user payload with the token attached for client-side storage.
func (h *AuthHandler) issueSession(c *gin.Context, user *models.User) {
	ttl := tokenTTL()
	session, err := repository.CreateUserSession(c.Request.Context(), user.ID, ttl)
	if err != nil {
		h.log.Error("Failed to create user session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, session.Token, int(ttl.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.PublicID,
		"email":         user.Email,
		"name":          user.Name,
		"picture":       user.Picture,
		"created_at":    user.CreatedAt,
		"session_token": session.Token,
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	c.JSON(http.StatusOK, user)
}

// Logout revokes the current bearer token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Get("session_token")
	if tokenStr, ok := token.(string); ok && tokenStr != "" {
		if err := repository.DeleteSessionByToken(c.Request.Context(), tokenStr); err != nil {
			h.log.Error("Failed to delete session on logout", zap.Error(err))
		}
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CurrentUser returns the user loaded by the auth middleware. Only valid on
// routes behind AuthRequired.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get("user")
	u, _ := user.(*models.User)
	return u
}
