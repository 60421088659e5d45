package client

import (
	"context"
	"sync"

	"github.com/RohitKattimani/MedReadApp/internal/models"

	"go.uber.org/zap"
)

// AuthStatus is the gate's answer for whether protected views may render.
type AuthStatus int

const (
	// StatusPending means a credential check is still outstanding.
	StatusPending AuthStatus = iota
	// StatusAuthenticated means a usable identity is in hand.
	StatusAuthenticated
	// StatusUnauthenticated means the user must sign in.
	StatusUnauthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Gate resolves the user's identity before protected views render.
// Resolution order: an in-band provider session id passed by the caller,
// then the cached credential, then at most one remote identity lookup.
// Concurrent Check calls share a single resolution.
type Gate struct {
	client *Client
	store  CredentialStore
	log    *zap.Logger

	mu     sync.Mutex
	once   sync.Once
	status AuthStatus
	user   *models.User
}

// NewGate builds a gate over the given client and its credential store.
func NewGate(c *Client, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		client: c,
		store:  c.store,
		log:    log,
		status: StatusPending,
	}
}

// Status returns the last resolved status without triggering a lookup.
func (g *Gate) Status() AuthStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// User returns the resolved identity, or nil while pending/unauthenticated.
func (g *Gate) User() *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user
}

// Check resolves the identity. handoffSessionID, when non-empty, is an
// external provider session id to exchange before consulting the cache.
// The first call does the work; later and concurrent calls see its result.
func (g *Gate) Check(ctx context.Context, handoffSessionID string) AuthStatus {
	g.once.Do(func() {
		g.resolve(ctx, handoffSessionID)
	})
	return g.Status()
}

func (g *Gate) resolve(ctx context.Context, handoffSessionID string) {
	if handoffSessionID != "" {
		user, err := g.client.ExchangeSession(ctx, handoffSessionID)
		if err == nil {
			g.set(StatusAuthenticated, user)
			return
		}
		g.log.Warn("Session handoff failed", zap.Error(err))
	}

	creds, err := g.store.Load()
	if err != nil {
		g.set(StatusUnauthenticated, nil)
		return
	}
	if creds.User != nil {
		g.set(StatusAuthenticated, creds.User)
		return
	}

	// Token without a cached identity: one remote lookup settles it.
	user, err := g.client.Me(ctx)
	if err != nil {
		g.log.Debug("Identity lookup failed", zap.Error(err))
		if clearErr := g.store.Clear(); clearErr != nil {
			g.log.Warn("Failed to clear stale credentials", zap.Error(clearErr))
		}
		g.set(StatusUnauthenticated, nil)
		return
	}
	if err := g.store.Save(&Credentials{Token: creds.Token, User: user}); err != nil {
		g.log.Warn("Failed to cache identity", zap.Error(err))
	}
	g.set(StatusAuthenticated, user)
}

func (g *Gate) set(status AuthStatus, user *models.User) {
	g.mu.Lock()
	g.status = status
	g.user = user
	g.mu.Unlock()
}

// Invalidate drops the resolved state so the next Check re-resolves.
// Used after logout or a 401 mid-session.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	g.status = StatusPending
	g.user = nil
	g.once = sync.Once{}
	g.mu.Unlock()
}
