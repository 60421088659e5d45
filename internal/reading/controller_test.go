package reading_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/reading"
)

// fakeAPI is an in-memory SessionAPI with the server's scoring rule.
type fakeAPI struct {
	mu sync.Mutex

	images  []models.Image
	session *models.ReadingSession

	submitCalls   int
	completeCalls int
	pauseCalls    int
	resumeCalls   int
	quitCalls     int

	// onSubmit runs inside SubmitResponse, before scoring. Used to test
	// reentrancy while a submission is in flight.
	onSubmit func()

	submitErr error
}

func newFakeAPI(categories ...string) *fakeAPI {
	images := make([]models.Image, len(categories))
	for i, cat := range categories {
		images[i] = models.Image{ID: fmt.Sprintf("img_%012d", i), Category: cat}
	}
	return &fakeAPI{images: images}
}

func (f *fakeAPI) StartSession(ctx context.Context, imageCount int) (*models.SessionBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.images) == 0 {
		return nil, reading.ErrNoImages
	}
	f.session = &models.ReadingSession{
		ID:          "sess_000000000001",
		Status:      models.StatusInProgress,
		TotalImages: len(f.images),
		StartedAt:   time.Now(),
	}
	redacted := make([]models.Image, len(f.images))
	for i, img := range f.images {
		redacted[i] = img.Redacted()
	}
	return &models.SessionBundle{Session: f.session, Images: redacted}, nil
}

func (f *fakeAPI) FetchSession(ctx context.Context, sessionID string) (*models.SessionBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil || f.session.ID != sessionID {
		return nil, errors.New("session not found")
	}
	redacted := make([]models.Image, len(f.images))
	for i, img := range f.images {
		redacted[i] = img.Redacted()
	}
	return &models.SessionBundle{Session: f.session, Images: redacted}, nil
}

func (f *fakeAPI) SubmitResponse(ctx context.Context, sessionID string, req models.SubmitRequest) (*models.SubmitResult, error) {
	f.mu.Lock()
	f.submitCalls++
	hook := f.onSubmit
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	var actual string
	for _, img := range f.images {
		if img.ID == req.ImageID {
			actual = img.Category
		}
	}
	correct := strings.EqualFold(req.Diagnosis, actual)
	f.session.ImagesReviewed++
	f.session.TotalTimeMs += req.TimeTakenMs
	if correct {
		f.session.CorrectCount++
	}
	return &models.SubmitResult{
		ResponseID:     fmt.Sprintf("resp_%011d", f.submitCalls),
		IsCorrect:      correct,
		ActualCategory: actual,
	}, nil
}

func (f *fakeAPI) PauseSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseCalls++
	f.session.Status = models.StatusPaused
	return nil
}

func (f *fakeAPI) ResumeSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCalls++
	f.session.Status = models.StatusInProgress
	return nil
}

func (f *fakeAPI) CompleteSession(ctx context.Context, sessionID string) (*models.SessionBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	f.session.Status = models.StatusCompleted
	return &models.SessionBundle{Session: f.session}, nil
}

func (f *fakeAPI) QuitSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quitCalls++
	f.session.Status = models.StatusQuit
	return nil
}

// manualScheduler collects After callbacks so tests fire review advances
// explicitly instead of sleeping.
type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *manualScheduler) after(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending = nil
	}
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func newTestController(api reading.SessionAPI, sched *manualScheduler, clock *fakeClock) *reading.Controller {
	return reading.NewController(reading.Config{
		API:   api,
		After: sched.after,
		Clock: clock.now,
	})
}

func TestControllerFullSession(t *testing.T) {
	api := newFakeAPI("normal", "cancer", "normal")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if ctrl.State() != reading.StateActive {
		t.Fatalf("state after Start = %v, want active", ctrl.State())
	}
	if ctrl.Current().Category != "" {
		t.Fatal("controller received an unredacted image")
	}

	// normal: correct, cancer misread as benign, normal: correct.
	guesses := []struct {
		d       reading.Diagnosis
		correct bool
	}{
		{reading.FixedDiagnosis("normal"), true},
		{reading.CustomDiagnosis("Benign"), false},
		{reading.FixedDiagnosis("normal"), true},
	}
	for i, g := range guesses {
		clock.advance(2 * time.Second)
		if err := ctrl.Submit(context.Background(), g.d); err != nil {
			t.Fatalf("Submit(%d) error: %v", i, err)
		}
		if ctrl.State() != reading.StateReviewing {
			t.Fatalf("state after Submit(%d) = %v, want reviewing", i, ctrl.State())
		}
		result := ctrl.LastResult()
		if result.IsCorrect != g.correct {
			t.Errorf("Submit(%d) IsCorrect = %v, want %v", i, result.IsCorrect, g.correct)
		}
		sched.fire()
	}

	if ctrl.State() != reading.StateCompleted {
		t.Fatalf("state after last review = %v, want completed", ctrl.State())
	}
	if api.completeCalls != 1 {
		t.Errorf("completeCalls = %d, want 1", api.completeCalls)
	}

	session := ctrl.Session()
	if session.CorrectCount != 2 || session.ImagesReviewed != 3 {
		t.Errorf("counters = %d/%d, want 2/3", session.CorrectCount, session.ImagesReviewed)
	}
	if got := session.Accuracy(); got < 66.6 || got > 66.7 {
		t.Errorf("Accuracy() = %.2f, want ~66.67", got)
	}
}

func TestControllerSubmitTimeExcludesCustomEntry(t *testing.T) {
	api := newFakeAPI("cancer")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	clock.advance(4 * time.Second)
	ctrl.BeginCustomEntry()
	clock.advance(5 * time.Second)
	ctrl.EndCustomEntry()
	clock.advance(3 * time.Second)

	if err := ctrl.Submit(context.Background(), reading.CustomDiagnosis("cancer")); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if got := api.session.TotalTimeMs; got != 7000 {
		t.Errorf("submitted time = %dms, want 7000", got)
	}
}

func TestControllerRejectsConcurrentSubmit(t *testing.T) {
	api := newFakeAPI("normal")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	var reentrant error
	api.onSubmit = func() {
		// A second submit arriving while the first is on the wire.
		reentrant = ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal"))
	}

	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !errors.Is(reentrant, reading.ErrSubmissionInFlight) {
		t.Errorf("reentrant Submit error = %v, want ErrSubmissionInFlight", reentrant)
	}
	if api.submitCalls != 1 {
		t.Errorf("submitCalls = %d, want 1", api.submitCalls)
	}
}

func TestControllerSubmitFailureKeepsActive(t *testing.T) {
	api := newFakeAPI("normal")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	api.submitErr = errors.New("boom")
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); err == nil {
		t.Fatal("Submit() succeeded despite API failure")
	}
	if ctrl.State() != reading.StateActive {
		t.Errorf("state after failed submit = %v, want active", ctrl.State())
	}

	// Retry works once the API recovers.
	api.submitErr = nil
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); err != nil {
		t.Errorf("retry Submit() error: %v", err)
	}
}

func TestControllerQuitNeverCompletes(t *testing.T) {
	api := newFakeAPI("normal", "cancer", "normal", "benign", "cancer")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	// Quit during the verdict display, 1 of 5 answered.
	if err := ctrl.Quit(context.Background()); err != nil {
		t.Fatalf("Quit() error: %v", err)
	}
	if ctrl.State() != reading.StateQuit {
		t.Fatalf("state after Quit = %v, want quit", ctrl.State())
	}

	// The cancelled review advance must not resurrect the session.
	sched.fire()
	if ctrl.State() != reading.StateQuit {
		t.Errorf("state after stale review fired = %v, want quit", ctrl.State())
	}
	if api.completeCalls != 0 {
		t.Errorf("completeCalls = %d, want 0 after quit", api.completeCalls)
	}
	if api.quitCalls != 1 {
		t.Errorf("quitCalls = %d, want 1", api.quitCalls)
	}

	// Quit is idempotent; submissions are rejected.
	if err := ctrl.Quit(context.Background()); err != nil {
		t.Errorf("second Quit() error: %v", err)
	}
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); !errors.Is(err, reading.ErrNotActive) {
		t.Errorf("Submit after quit = %v, want ErrNotActive", err)
	}
}

func TestControllerQuitAfterCompleteFails(t *testing.T) {
	api := newFakeAPI("normal")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	sched.fire()

	if err := ctrl.Quit(context.Background()); !errors.Is(err, reading.ErrSessionFinished) {
		t.Errorf("Quit after completion = %v, want ErrSessionFinished", err)
	}
}

func TestControllerPauseResume(t *testing.T) {
	api := newFakeAPI("normal", "cancer")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	clock.advance(2 * time.Second)
	if err := ctrl.Pause(context.Background()); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	if ctrl.State() != reading.StatePaused {
		t.Fatalf("state = %v, want paused", ctrl.State())
	}

	// Paused: the clock is stopped and submissions are rejected.
	clock.advance(time.Minute)
	if got := ctrl.ActiveTime(); got != 2*time.Second {
		t.Errorf("ActiveTime() = %v while paused, want 2s", got)
	}
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); !errors.Is(err, reading.ErrNotActive) {
		t.Errorf("Submit while paused = %v, want ErrNotActive", err)
	}
	if err := ctrl.Resume(context.Background()); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}

	clock.advance(time.Second)
	if got := ctrl.ActiveTime(); got != 3*time.Second {
		t.Errorf("ActiveTime() = %v after resume, want 3s", got)
	}
	if api.pauseCalls != 1 || api.resumeCalls != 1 {
		t.Errorf("pause/resume calls = %d/%d, want 1/1", api.pauseCalls, api.resumeCalls)
	}
}

func TestControllerStartEmpty(t *testing.T) {
	api := newFakeAPI()
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); !errors.Is(err, reading.ErrNoImages) {
		t.Errorf("Start() with no images = %v, want ErrNoImages", err)
	}
	if ctrl.State() != reading.StateLoading {
		t.Errorf("state = %v, want loading after failed start", ctrl.State())
	}
}

func TestControllerRetreatThenAdvance(t *testing.T) {
	api := newFakeAPI("normal", "cancer", "benign")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	for _, d := range []string{"normal", "cancer"} {
		if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis(d)); err != nil {
			t.Fatalf("Submit(%s) error: %v", d, err)
		}
		sched.fire()
	}

	// Step back to the first image for review.
	for ctrl.Retreat() {
	}
	if idx, _ := ctrl.Position(); idx != 0 {
		t.Fatalf("Position() after retreats = %d, want 0", idx)
	}
	if ctrl.State() != reading.StateActive {
		t.Fatalf("state after retreats = %v, want active", ctrl.State())
	}

	// An answered image can be viewed but not re-submitted.
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); !errors.Is(err, reading.ErrAlreadyAnswered) {
		t.Fatalf("Submit() on answered image = %v, want ErrAlreadyAnswered", err)
	}
	if api.submitCalls != 2 {
		t.Errorf("submitCalls = %d, want 2 (no duplicate sent)", api.submitCalls)
	}

	// Advance walks forward across answered images back to the frontier.
	if !ctrl.Advance() {
		t.Fatal("Advance() from image 0 = false, want true")
	}
	if !ctrl.Advance() {
		t.Fatal("Advance() from image 1 = false, want true")
	}
	if idx, _ := ctrl.Position(); idx != 2 {
		t.Fatalf("Position() after advances = %d, want 2", idx)
	}
	if ctrl.Advance() {
		t.Fatal("Advance() past the unanswered frontier = true, want false")
	}

	// The frontier image still accepts its first submission.
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("benign")); err != nil {
		t.Fatalf("Submit() at frontier error: %v", err)
	}
	sched.fire()
	if ctrl.State() != reading.StateCompleted {
		t.Errorf("state = %v, want completed", ctrl.State())
	}
}

func TestControllerResumeSkipsAnsweredImages(t *testing.T) {
	api := newFakeAPI("normal", "cancer", "benign")
	sched := &manualScheduler{}
	clock := newFakeClock()
	ctrl := newTestController(api, sched, clock)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := ctrl.Submit(context.Background(), reading.FixedDiagnosis("normal")); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	sched.fire()

	// A fresh controller resuming the same session lands on image 2.
	api.mu.Lock()
	responses := []models.SessionResponse{{SessionID: api.session.ID, ImageID: "img_000000000000"}}
	api.mu.Unlock()

	resumed := reading.NewController(reading.Config{
		API:       &resumingAPI{fakeAPI: api, responses: responses},
		SessionID: "sess_000000000001",
		After:     sched.after,
		Clock:     clock.now,
	})
	if err := resumed.Start(context.Background()); err != nil {
		t.Fatalf("resumed Start() error: %v", err)
	}
	if idx, total := resumed.Position(); idx != 1 || total != 3 {
		t.Errorf("resumed Position() = %d,%d, want 1,3", idx, total)
	}
}

// resumingAPI decorates fakeAPI to return prior responses on fetch.
type resumingAPI struct {
	*fakeAPI
	responses []models.SessionResponse
}

func (r *resumingAPI) FetchSession(ctx context.Context, sessionID string) (*models.SessionBundle, error) {
	bundle, err := r.fakeAPI.FetchSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	bundle.Responses = r.responses
	return bundle, nil
}
