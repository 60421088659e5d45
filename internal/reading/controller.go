package reading

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/models"

	"go.uber.org/zap"
)

// State is the controller's lifecycle position.
type State int

const (
	StateLoading State = iota
	StateActive
	StatePaused
	StateReviewing
	StateCompleted
	StateQuit
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateReviewing:
		return "reviewing"
	case StateCompleted:
		return "completed"
	case StateQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// DefaultResultDisplay is how long a verdict stays on screen before the
// session advances.
const DefaultResultDisplay = 1000 * time.Millisecond

var (
	// ErrNoImages means the session has no images to read; the controller
	// refuses to enter the active state.
	ErrNoImages = errors.New("no images available")
	// ErrNotActive rejects an operation that requires the active state.
	ErrNotActive = errors.New("session is not active")
	// ErrSubmissionInFlight rejects a second submit while one is pending.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrAlreadyAnswered rejects a submit for an image that already has a
	// response; the server would refuse the duplicate anyway.
	ErrAlreadyAnswered = errors.New("image already answered")
	// ErrSessionFinished rejects operations on a completed or quit session.
	ErrSessionFinished = errors.New("session already finished")
)

// SessionAPI is the remote surface the controller drives. Implemented by
// client.Client; tests substitute a fake.
type SessionAPI interface {
	StartSession(ctx context.Context, imageCount int) (*models.SessionBundle, error)
	FetchSession(ctx context.Context, sessionID string) (*models.SessionBundle, error)
	SubmitResponse(ctx context.Context, sessionID string, req models.SubmitRequest) (*models.SubmitResult, error)
	PauseSession(ctx context.Context, sessionID string) error
	ResumeSession(ctx context.Context, sessionID string) error
	CompleteSession(ctx context.Context, sessionID string) (*models.SessionBundle, error)
	QuitSession(ctx context.Context, sessionID string) error
}

// Config assembles a Controller. Zero-value fields fall back to sane
// defaults; only API is mandatory.
type Config struct {
	API SessionAPI
	Log *zap.Logger

	// SessionID resumes an existing session instead of starting a new one.
	SessionID string
	// ImageCount is the sample size for a new session; 0 lets the server
	// apply its default.
	ImageCount int

	// ResultDisplay is how long a submitted verdict is shown before the
	// session advances. Defaults to DefaultResultDisplay.
	ResultDisplay time.Duration
	// Tick is the display refresh interval for the active timer.
	Tick time.Duration

	// Clock and After are injectable for tests. After schedules fn once
	// after d and returns a cancel func.
	Clock func() time.Time
	After func(d time.Duration, fn func()) (cancel func())

	// OnChange is invoked after every observable state change, including
	// timer ticks while the clock runs. Called without locks held.
	OnChange func()

	// Prefetch, when set, is invoked once per image transition with the
	// upcoming image so a UI can warm its payload. One-deep only.
	Prefetch func(next models.Image)
}

// Controller orchestrates the timer, navigator and remote submission calls
// into the reading session lifecycle. Safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	api SessionAPI
	log *zap.Logger
	cfg Config
	ctx context.Context

	state      State
	session    *models.ReadingSession
	nav        *Navigator
	timer      *Timer
	ticker     *Ticker
	submitting bool
	answered   int
	lastResult *models.SubmitResult

	// cancelReview tears down the pending advance while a verdict is shown.
	cancelReview func()
}

// NewController builds a controller in the loading state. Call Start to
// enter the session.
func NewController(cfg Config) *Controller {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.ResultDisplay <= 0 {
		cfg.ResultDisplay = DefaultResultDisplay
	}
	if cfg.After == nil {
		cfg.After = func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		}
	}

	c := &Controller{
		api:   cfg.API,
		log:   cfg.Log,
		cfg:   cfg,
		state: StateLoading,
		timer: NewTimerWithClock(cfg.Clock),
	}
	c.ticker = NewTicker(cfg.Tick, c.notify)
	return c
}

// Start fetches (or starts) the session and enters the active state. The
// context is retained for the controller's lifetime calls such as the
// completion request fired after the last review interval.
func (c *Controller) Start(ctx context.Context) error {
	var bundle *models.SessionBundle
	var err error
	if c.cfg.SessionID != "" {
		bundle, err = c.api.FetchSession(ctx, c.cfg.SessionID)
	} else {
		bundle, err = c.api.StartSession(ctx, c.cfg.ImageCount)
	}
	if err != nil {
		return err
	}
	if bundle.Session == nil || len(bundle.Images) == 0 {
		return ErrNoImages
	}

	c.mu.Lock()
	c.ctx = ctx
	c.session = bundle.Session
	c.nav = NewNavigator(bundle.Images)

	// A resumed session picks up after the images already answered.
	c.answered = len(bundle.Responses)
	for i := 0; i < c.answered; i++ {
		c.nav.Advance()
	}

	switch c.session.Status {
	case models.StatusCompleted:
		c.state = StateCompleted
	case models.StatusQuit:
		c.state = StateQuit
	case models.StatusPaused:
		c.state = StatePaused
	default:
		c.state = StateActive
		c.timer.Reset()
		c.timer.Start()
		c.ticker.Start()
	}
	c.prefetchNextLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the locally mirrored session record.
func (c *Controller) Session() *models.ReadingSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Current returns the image under review.
func (c *Controller) Current() models.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Current()
}

// Position returns the zero-based image index and total count.
func (c *Controller) Position() (index, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Position()
}

// ActiveTime returns the timer's current active duration for display.
func (c *Controller) ActiveTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer.Elapsed()
}

// LastResult returns the verdict for the most recent submission, if any.
func (c *Controller) LastResult() *models.SubmitResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

// Submit sends the diagnosis for the current image. Rejected while paused,
// while a verdict is displayed, and while another submission is in flight.
// On failure the controller stays active so the user can retry.
func (c *Controller) Submit(ctx context.Context, d Diagnosis) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if err := d.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	if idx, _ := c.nav.Position(); idx < c.answered {
		c.mu.Unlock()
		return ErrAlreadyAnswered
	}

	image := c.nav.Current()
	elapsed := c.timer.Elapsed()
	sessionID := c.session.ID
	c.submitting = true
	c.mu.Unlock()

	result, err := c.api.SubmitResponse(ctx, sessionID, models.SubmitRequest{
		ImageID:     image.ID,
		Diagnosis:   d.Value,
		TimeTakenMs: elapsed.Milliseconds(),
	})

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("Diagnosis submission failed", zap.Error(err), zap.String("image_id", image.ID))
		return err
	}

	// Mirror the server-side counter updates locally.
	c.answered++
	c.session.ImagesReviewed++
	c.session.TotalTimeMs += elapsed.Milliseconds()
	if result.IsCorrect {
		c.session.CorrectCount++
	}

	c.lastResult = result
	c.state = StateReviewing
	c.timer.Pause()
	c.ticker.Stop()
	c.cancelReview = c.cfg.After(c.cfg.ResultDisplay, c.FinishReview)
	c.mu.Unlock()

	c.notify()
	return nil
}

// FinishReview ends the verdict display: advance to the next image, or
// complete the session when the list is exhausted. Normally fired by the
// scheduled review interval; exposed for hosts that drive their own clock.
func (c *Controller) FinishReview() {
	c.mu.Lock()
	if c.state != StateReviewing {
		c.mu.Unlock()
		return
	}
	c.cancelReview = nil

	if c.nav.Advance() {
		c.state = StateActive
		c.timer.Reset()
		c.timer.Start()
		c.ticker.Start()
		c.prefetchNextLocked()
		c.mu.Unlock()
		c.notify()
		return
	}

	// Exhausted: finalize remotely, then land on the results state.
	c.state = StateCompleted
	c.session.Status = models.StatusCompleted
	ctx := c.ctx
	sessionID := c.session.ID
	c.mu.Unlock()

	if _, err := c.api.CompleteSession(ctx, sessionID); err != nil {
		c.log.Error("Failed to complete session remotely", zap.Error(err), zap.String("session_id", sessionID))
	}
	c.notify()
}

// Pause stops the clock and notifies the remote so the session survives a
// reload. Only valid while active.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	sessionID := c.session.ID
	c.mu.Unlock()

	if err := c.api.PauseSession(ctx, sessionID); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StatePaused
	c.session.Status = models.StatusPaused
	c.timer.Pause()
	c.ticker.Stop()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Resume restarts the clock from the paused state.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return ErrNotActive
	}
	sessionID := c.session.ID
	c.mu.Unlock()

	if err := c.api.ResumeSession(ctx, sessionID); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StateActive
	c.session.Status = models.StatusInProgress
	c.timer.Resume()
	c.ticker.Start()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Quit abandons the session. Terminal from any state but completed; the
// completion endpoint is never called. Pending scheduled work (the review
// advance and the display tick) is cancelled synchronously.
func (c *Controller) Quit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateCompleted:
		c.mu.Unlock()
		return ErrSessionFinished
	case StateQuit:
		c.mu.Unlock()
		return nil
	}
	if c.cancelReview != nil {
		c.cancelReview()
		c.cancelReview = nil
	}
	c.state = StateQuit
	c.timer.Pause()
	c.ticker.Stop()
	session := c.session
	c.mu.Unlock()

	c.notify()

	if session == nil {
		return nil
	}
	if err := c.api.QuitSession(ctx, session.ID); err != nil {
		c.log.Warn("Failed to mark session quit remotely", zap.Error(err), zap.String("session_id", session.ID))
		return err
	}
	session.Status = models.StatusQuit
	return nil
}

// BeginCustomEntry excludes free-text typing time from the active clock.
// Controller state is unchanged.
func (c *Controller) BeginCustomEntry() {
	c.mu.Lock()
	if c.state == StateActive {
		c.timer.ExcludeEnter()
	}
	c.mu.Unlock()
}

// EndCustomEntry closes the excluded interval opened by BeginCustomEntry.
func (c *Controller) EndCustomEntry() {
	c.mu.Lock()
	c.timer.ExcludeExit()
	c.mu.Unlock()
}

// Retreat steps back one image for review navigation; it never re-submits.
// Disallowed while paused or while a verdict is displayed.
func (c *Controller) Retreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePaused || c.state == StateReviewing {
		return false
	}
	return c.nav.Retreat()
}

// Advance steps forward again after a Retreat. It only moves across images
// that already have a response, so it can never skip an unanswered image.
// Disallowed while paused or while a verdict is displayed.
func (c *Controller) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePaused || c.state == StateReviewing {
		return false
	}
	if idx, _ := c.nav.Position(); idx >= c.answered {
		return false
	}
	return c.nav.Advance()
}

// prefetchNextLocked warms the upcoming image. Caller holds c.mu.
func (c *Controller) prefetchNextLocked() {
	if c.cfg.Prefetch == nil {
		return
	}
	if next, ok := c.nav.Peek(); ok {
		go c.cfg.Prefetch(next)
	}
}

// SetOnChange replaces the change hook. Hosts whose render loop only
// exists after construction (a TUI program) install it here before Start.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.cfg.OnChange = fn
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.cfg.OnChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
