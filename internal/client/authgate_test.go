package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/RohitKattimani/MedReadApp/internal/client"
	"github.com/RohitKattimani/MedReadApp/internal/models"
)

func TestGateUsesCachedIdentity(t *testing.T) {
	var remoteCalls atomic.Int64
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteCalls.Add(1)
		json.NewEncoder(w).Encode(models.User{Email: "remote@example.com"})
	}))

	store.Save(&client.Credentials{
		Token: "tok",
		User:  &models.User{PublicID: "user_3f2a9c81d04e", Email: "cached@example.com"},
	})

	gate := client.NewGate(c, nil)
	if got := gate.Check(context.Background(), ""); got != client.StatusAuthenticated {
		t.Fatalf("Check() = %v, want authenticated", got)
	}
	if gate.User().Email != "cached@example.com" {
		t.Errorf("User().Email = %q, want cached identity", gate.User().Email)
	}
	if remoteCalls.Load() != 0 {
		t.Errorf("remote lookups = %d, want 0 with cached identity", remoteCalls.Load())
	}
}

func TestGateRemoteLookupOnce(t *testing.T) {
	var remoteCalls atomic.Int64
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		remoteCalls.Add(1)
		json.NewEncoder(w).Encode(models.User{PublicID: "user_3f2a9c81d04e", Email: "remote@example.com"})
	}))

	// Token present but no cached identity: the gate resolves remotely.
	store.Save(&client.Credentials{Token: "tok"})

	gate := client.NewGate(c, nil)
	var wg sync.WaitGroup
	results := make([]client.AuthStatus, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = gate.Check(context.Background(), "")
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != client.StatusAuthenticated {
			t.Errorf("Check[%d] = %v, want authenticated", i, got)
		}
	}
	if remoteCalls.Load() != 1 {
		t.Errorf("remote lookups = %d, want exactly 1 across concurrent checks", remoteCalls.Load())
	}

	// The fetched identity is cached for the next process.
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("store.Load() error: %v", err)
	}
	if creds.User == nil || creds.User.Email != "remote@example.com" {
		t.Error("resolved identity not written back to the store")
	}
}

func TestGateFailedLookupClearsCache(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Not authenticated"})
	}))

	store.Save(&client.Credentials{Token: "expired"})

	gate := client.NewGate(c, nil)
	if got := gate.Check(context.Background(), ""); got != client.StatusUnauthenticated {
		t.Fatalf("Check() = %v, want unauthenticated", got)
	}
	if _, err := store.Load(); err == nil {
		t.Error("stale credential survived a failed identity lookup")
	}
}

func TestGateNoCredentials(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected remote call with no stored credentials")
	}))

	gate := client.NewGate(c, nil)
	if got := gate.Check(context.Background(), ""); got != client.StatusUnauthenticated {
		t.Errorf("Check() = %v, want unauthenticated", got)
	}
	if gate.User() != nil {
		t.Error("User() non-nil while unauthenticated")
	}
}

func TestGateHandoffExchange(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/session" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["session_id"] != "ext-abc" {
			t.Errorf("session_id = %q", body["session_id"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id":       "user_3f2a9c81d04e",
			"email":         "sso@example.com",
			"session_token": "minted",
		})
	}))

	gate := client.NewGate(c, nil)
	if got := gate.Check(context.Background(), "ext-abc"); got != client.StatusAuthenticated {
		t.Fatalf("Check() = %v, want authenticated", got)
	}
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("store.Load() error: %v", err)
	}
	if creds.Token != "minted" {
		t.Errorf("stored token = %q, want minted", creds.Token)
	}
}

func TestGateInvalidateForcesReResolve(t *testing.T) {
	var remoteCalls atomic.Int64
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteCalls.Add(1)
		json.NewEncoder(w).Encode(models.User{Email: "remote@example.com"})
	}))

	store.Save(&client.Credentials{Token: "tok"})

	gate := client.NewGate(c, nil)
	gate.Check(context.Background(), "")
	gate.Check(context.Background(), "")
	if remoteCalls.Load() != 1 {
		t.Fatalf("remote lookups = %d before invalidate, want 1", remoteCalls.Load())
	}

	gate.Invalidate()
	if gate.Status() != client.StatusPending {
		t.Errorf("Status() after Invalidate = %v, want pending", gate.Status())
	}

	// Drop the cached identity so the re-resolve must go remote again.
	store.Save(&client.Credentials{Token: "tok"})
	gate.Check(context.Background(), "")
	if remoteCalls.Load() != 2 {
		t.Errorf("remote lookups = %d after invalidate, want 2", remoteCalls.Load())
	}
}
