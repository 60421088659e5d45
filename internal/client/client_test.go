package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/RohitKattimani/MedReadApp/internal/client"
	"github.com/RohitKattimani/MedReadApp/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*client.Client, *client.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := &client.MemoryStore{}
	c, err := client.New(srv.URL, store, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, store
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Image{})
	}))

	if err := store.Save(&client.Credentials{Token: "tok123"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListImages(context.Background(), ""); err != nil {
		t.Fatalf("ListImages() error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", gotAuth)
	}
}

func TestClientQueryParamsReachServer(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.Image{})
	}))

	if _, err := c.RandomImages(context.Background(), 3); err != nil {
		t.Fatalf("RandomImages() error: %v", err)
	}
	if gotPath != "/api/images/random" {
		t.Errorf("path = %q, want /api/images/random", gotPath)
	}
	if gotQuery != "count=3" {
		t.Errorf("query = %q, want count=3", gotQuery)
	}

	if _, err := c.ListImages(context.Background(), "chest xray"); err != nil {
		t.Fatalf("ListImages() error: %v", err)
	}
	if gotPath != "/api/images" {
		t.Errorf("path = %q, want /api/images", gotPath)
	}
	if gotQuery != "category=chest+xray" {
		t.Errorf("query = %q, want category=chest+xray", gotQuery)
	}
}

func TestClientUnauthorizedClearsStore(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Not authenticated"})
	}))

	if err := store.Save(&client.Credentials{Token: "stale"}); err != nil {
		t.Fatal(err)
	}
	hookFired := false
	c.OnUnauthorized = func() { hookFired = true }

	_, err := c.ListSessions(context.Background())
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if !hookFired {
		t.Error("OnUnauthorized hook did not fire")
	}
	if _, err := store.Load(); !errors.Is(err, client.ErrNoCredentials) {
		t.Errorf("store not cleared after 401: %v", err)
	}
}

func TestClientLoginStoresCredentials(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "reader@example.com" {
			t.Errorf("email = %q", body["email"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id":       "user_3f2a9c81d04e",
			"email":         "reader@example.com",
			"name":          "Reader",
			"session_token": "fresh-token",
		})
	}))

	user, err := c.Login(context.Background(), "reader@example.com", "hunter2!A")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if user.Email != "reader@example.com" {
		t.Errorf("user.Email = %q", user.Email)
	}
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("store.Load() error: %v", err)
	}
	if creds.Token != "fresh-token" {
		t.Errorf("stored token = %q, want fresh-token", creds.Token)
	}
	if creds.User == nil || creds.User.Email != "reader@example.com" {
		t.Error("identity not cached alongside token")
	}
}

func TestClientServerErrorSurfaced(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "No images available. Please upload images first."})
	}))

	_, err := c.StartSession(context.Background(), 10)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if apiErr.Message != "No images available. Please upload images first." {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestClientSubmitResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/sess_0001/response" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req models.SubmitRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.TimeTakenMs != 7000 {
			t.Errorf("TimeTakenMs = %d, want 7000", req.TimeTakenMs)
		}
		json.NewEncoder(w).Encode(models.SubmitResult{
			ResponseID:     "resp_00000000001",
			IsCorrect:      true,
			ActualCategory: "cancer",
		})
	}))

	result, err := c.SubmitResponse(context.Background(), "sess_0001", models.SubmitRequest{
		ImageID:     "img_3f2a9c81d04e",
		Diagnosis:   "cancer",
		TimeTakenMs: 7000,
	})
	if err != nil {
		t.Fatalf("SubmitResponse() error: %v", err)
	}
	if !result.IsCorrect || result.ActualCategory != "cancer" {
		t.Errorf("result = %+v", result)
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := client.NewCredentialStore()
	if err != nil {
		t.Fatalf("NewCredentialStore() error: %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, client.ErrNoCredentials) {
		t.Fatalf("Load() on empty store = %v, want ErrNoCredentials", err)
	}

	saved := &client.Credentials{
		Token: "tok",
		User:  &models.User{PublicID: "user_3f2a9c81d04e", Email: "reader@example.com"},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Token != "tok" || loaded.User.Email != "reader@example.com" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}

	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "medread", "credentials.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("credentials file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credential file mode = %o, want 0600", perm)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, client.ErrNoCredentials) {
		t.Errorf("Load() after Clear = %v, want ErrNoCredentials", err)
	}
}
