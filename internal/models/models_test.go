package models_test

import (
	"regexp"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/RohitKattimani/MedReadApp/internal/models"
)

func TestNewIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^img_[0-9a-f]{12}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := models.NewID("img")
		if !pattern.MatchString(id) {
			t.Fatalf("NewID() = %q, want img_ plus 12 hex chars", id)
		}
		if seen[id] {
			t.Fatalf("NewID() repeated %q", id)
		}
		seen[id] = true
	}
}

func TestImageRedacted(t *testing.T) {
	img := models.Image{
		ID:       "img_3f2a9c81d04e",
		Filename: "scan.png",
		Category: "cancer",
	}
	red := img.Redacted()
	if red.Category != "" {
		t.Errorf("Redacted().Category = %q, want empty", red.Category)
	}
	if red.ID != img.ID || red.Filename != img.Filename {
		t.Error("Redacted() altered non-category fields")
	}
	if img.Category != "cancer" {
		t.Error("Redacted() mutated the receiver")
	}
}

func TestSessionAccuracy(t *testing.T) {
	cases := []struct {
		reviewed, correct int
		want              float64
	}{
		{0, 0, 0},
		{3, 2, 66.66666666666666},
		{4, 4, 100},
		{5, 0, 0},
	}
	for _, tc := range cases {
		s := models.ReadingSession{ImagesReviewed: tc.reviewed, CorrectCount: tc.correct}
		if got := s.Accuracy(); got != tc.want {
			t.Errorf("Accuracy(%d/%d) = %v, want %v", tc.correct, tc.reviewed, got, tc.want)
		}
	}
}

func TestSessionActive(t *testing.T) {
	for status, want := range map[string]bool{
		models.StatusInProgress: true,
		models.StatusPaused:     true,
		models.StatusCompleted:  false,
		models.StatusQuit:       false,
	} {
		s := models.ReadingSession{Status: status}
		if got := s.Active(); got != want {
			t.Errorf("Active() with status %q = %v, want %v", status, got, want)
		}
	}
}

func TestUserSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := models.UserSession{ExpiresAt: now.Add(time.Hour)}
	stale := models.UserSession{ExpiresAt: now.Add(-time.Hour)}
	if fresh.Expired(now) {
		t.Error("future expiry reported expired")
	}
	if !stale.Expired(now) {
		t.Error("past expiry not reported expired")
	}
}

func TestUserCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ng!pass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	u := models.User{Password: string(hash)}
	if !u.CheckPassword("Str0ng!pass") {
		t.Error("correct password rejected")
	}
	if u.CheckPassword("wrong") {
		t.Error("wrong password accepted")
	}

	// Provider accounts have no password hash and never match.
	provider := models.User{}
	if provider.CheckPassword("") {
		t.Error("empty hash accepted a password")
	}
}
