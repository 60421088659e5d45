package reading

import (
	"sync"
	"time"
)

// DefaultTick is the display refresh resolution for the session timer.
const DefaultTick = 100 * time.Millisecond

// Ticker invokes a callback at a fixed interval while the session clock is
// visible. It exists so every state transition that stops the clock can
// cancel the periodic work synchronously instead of leaking a goroutine that
// fires after teardown.
type Ticker struct {
	interval time.Duration
	onTick   func()

	mu   sync.Mutex
	stop chan struct{}
}

// NewTicker creates a stopped ticker. A non-positive interval falls back to
// DefaultTick.
func NewTicker(interval time.Duration, onTick func()) *Ticker {
	if interval <= 0 {
		interval = DefaultTick
	}
	return &Ticker{interval: interval, onTick: onTick}
}

// Start begins ticking. No-op if already running.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.onTick()
			}
		}
	}()
}

// Stop cancels the periodic callback. Safe to call repeatedly and when
// never started.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}
