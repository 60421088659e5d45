// Package client is the Go consumer of the MedRead API: a REST client with a
// bearer interceptor, the credential cache, and the auth gate used before
// rendering protected views.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/models"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the server rejects the bearer credential.
// The client has already cleared the local cache by the time callers see it.
var ErrUnauthorized = errors.New("not authenticated")

// Client talks to the MedRead API. All requests carry the stored bearer
// token, attached uniformly by the transport. A 401 on any call clears the
// credential cache and fires the OnUnauthorized hook so the host can route
// to its unauthenticated entry point.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	store   CredentialStore
	log     *zap.Logger

	// OnUnauthorized runs after a 401 clears the credential cache.
	OnUnauthorized func()
}

// New builds a client for the given base URL (e.g. "http://localhost:5050").
func New(baseURL string, store CredentialStore, log *zap.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL: parsed,
		store:   store,
		log:     log,
	}
	c.http = &http.Client{
		Timeout:   30 * time.Second,
		Transport: &bearerTransport{store: store, next: http.DefaultTransport},
	}
	return c, nil
}

// bearerTransport attaches the stored token to every outgoing request.
type bearerTransport struct {
	store CredentialStore
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if creds, err := t.store.Load(); err == nil {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}
	return t.next.RoundTrip(req)
}

// do issues a request and decodes the JSON response into out (when non-nil).
// 401 responses clear the credential cache and fire the hook.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	u := *c.baseURL
	// A "?" embedded in Path would be percent-escaped on the wire, so the
	// query part has to go through RawQuery.
	path, query, _ := strings.Cut(path, "?")
	u.Path = "/api" + path
	u.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) handleUnauthorized() {
	if err := c.store.Clear(); err != nil {
		c.log.Warn("Failed to clear credentials after 401", zap.Error(err))
	}
	if c.OnUnauthorized != nil {
		c.OnUnauthorized()
	}
}

// APIError carries the server's error message and HTTP status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Error == "" {
		payload.Error = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, out)
}

// ---------- auth ----------

// Login authenticates a local account and stores the resulting credential.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// Register creates a local account and stores the resulting credential.
func (c *Client) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{"email": email, "password": password, "name": name})
}

// ExchangeSession trades an external provider session id for a credential.
func (c *Client) ExchangeSession(ctx context.Context, sessionID string) (*models.User, error) {
	return c.authenticate(ctx, "/auth/session", map[string]string{"session_id": sessionID})
}

func (c *Client) authenticate(ctx context.Context, path string, payload map[string]string) (*models.User, error) {
	var resp struct {
		models.User
		SessionToken string `json:"session_token"`
	}
	if err := c.postJSON(ctx, path, payload, &resp); err != nil {
		return nil, err
	}
	user := resp.User
	if err := c.store.Save(&Credentials{Token: resp.SessionToken, User: &user}); err != nil {
		return nil, fmt.Errorf("storing credentials: %w", err)
	}
	return &user, nil
}

// Me fetches the authenticated identity from the server.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the server-side token and clears the local cache.
func (c *Client) Logout(ctx context.Context) error {
	err := c.postJSON(ctx, "/auth/logout", nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// ---------- images ----------

func (c *Client) ListImages(ctx context.Context, category string) ([]models.Image, error) {
	path := "/images"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var images []models.Image
	err := c.do(ctx, http.MethodGet, path, nil, "", &images)
	return images, err
}

// UploadImage sends a file with its ground-truth category.
func (c *Client) UploadImage(ctx context.Context, filePath, category string) (*models.Image, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.WriteField("category", category); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var image models.Image
	if err := c.do(ctx, http.MethodPost, "/images/upload", &buf, writer.FormDataContentType(), &image); err != nil {
		return nil, err
	}
	return &image, nil
}

func (c *Client) DeleteImage(ctx context.Context, imageID string) error {
	return c.do(ctx, http.MethodDelete, "/images/"+url.PathEscape(imageID), nil, "", nil)
}

// RandomImages fetches a redacted random sample for ad-hoc review.
func (c *Client) RandomImages(ctx context.Context, count int) ([]models.Image, error) {
	var images []models.Image
	err := c.do(ctx, http.MethodGet, "/images/random?count="+strconv.Itoa(count), nil, "", &images)
	return images, err
}

// ImageStats returns per-category counts and the total.
func (c *Client) ImageStats(ctx context.Context) ([]models.CategoryStat, int64, error) {
	var resp struct {
		Categories []models.CategoryStat `json:"categories"`
		Total      int64                 `json:"total"`
	}
	err := c.do(ctx, http.MethodGet, "/images/stats", nil, "", &resp)
	return resp.Categories, resp.Total, err
}

// CategoryPresets returns the fixed diagnosis choices.
func (c *Client) CategoryPresets(ctx context.Context) ([]models.CategoryPreset, error) {
	var presets []models.CategoryPreset
	err := c.do(ctx, http.MethodGet, "/categories/presets", nil, "", &presets)
	return presets, err
}

// ---------- reading sessions ----------

// StartSession begins a new reading session. Part of reading.SessionAPI.
func (c *Client) StartSession(ctx context.Context, imageCount int) (*models.SessionBundle, error) {
	var bundle models.SessionBundle
	payload := map[string]int{"image_count": imageCount}
	if err := c.postJSON(ctx, "/sessions/start", payload, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// FetchSession returns a session with its images and prior responses.
func (c *Client) FetchSession(ctx context.Context, sessionID string) (*models.SessionBundle, error) {
	var bundle models.SessionBundle
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, "", &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]models.ReadingSession, error) {
	var sessions []models.ReadingSession
	err := c.do(ctx, http.MethodGet, "/sessions", nil, "", &sessions)
	return sessions, err
}

// SubmitResponse scores one diagnosis. Part of reading.SessionAPI.
func (c *Client) SubmitResponse(ctx context.Context, sessionID string, req models.SubmitRequest) (*models.SubmitResult, error) {
	var result models.SubmitResult
	if err := c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/response", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PauseSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/pause", nil, nil)
}

func (c *Client) ResumeSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/resume", nil, nil)
}

// CompleteSession finalizes the session and returns it with all responses.
func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*models.SessionBundle, error) {
	var bundle models.SessionBundle
	if err := c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/complete", nil, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (c *Client) QuitSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/quit", nil, nil)
}

// SessionCSV downloads the CSV export for a session.
func (c *Client) SessionCSV(ctx context.Context, sessionID string) ([]byte, error) {
	u := *c.baseURL
	u.Path = "/api/sessions/" + url.PathEscape(sessionID) + "/csv"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}
