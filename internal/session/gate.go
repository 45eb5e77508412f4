package session

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Gate decides whether requests carry a token and tears the session down
// when the server rejects it.
type Gate struct {
	store Store
	log   *log.Logger
	now   func() time.Time

	mu        sync.Mutex
	revoked   string // token the server answered 401 for
	listeners []func()
}

// NewGate wraps store. logger may be nil.
func NewGate(store Store, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Gate{store: store, log: logger, now: time.Now}
}

// Current returns the usable token, or nil when there is none, it has
// expired, or the server already rejected it. It never fails: a broken
// credentials file counts as logged out.
func (g *Gate) Current() *TokenInfo {
	ti, err := g.store.Load()
	if err != nil {
		g.log.Warn("ignoring unreadable credentials", "err", err)
		return nil
	}
	if ti == nil || ti.Token == "" {
		return nil
	}
	if ti.ExpiresAt == nil {
		ti.ExpiresAt = Expiry(ti.Token)
	}
	if ti.ExpiresAt != nil && !g.now().Before(*ti.ExpiresAt) {
		return nil
	}
	g.mu.Lock()
	revoked := g.revoked
	g.mu.Unlock()
	if revoked != "" && revoked == ti.Token {
		return nil
	}
	return ti
}

// Authenticated reports whether a usable token exists.
func (g *Gate) Authenticated() bool { return g.Current() != nil }

// Headers returns the Authorization header for the current token, or an
// empty map when unauthenticated.
func (g *Gate) Headers() map[string]string {
	h := map[string]string{}
	if ti := g.Current(); ti != nil {
		h["Authorization"] = "Bearer " + ti.Token
	}
	return h
}

// Login stores a freshly issued token.
func (g *Gate) Login(token string) error {
	token = StripBearer(token)
	if err := g.store.Save(token, Expiry(token)); err != nil {
		return err
	}
	g.mu.Lock()
	g.revoked = ""
	g.mu.Unlock()
	g.log.Debug("session started")
	return nil
}

// Logout clears the token and notifies listeners.
func (g *Gate) Logout() error {
	ti, _ := g.store.Load()
	err := g.store.Clear()
	if ti != nil && ti.Source == SourceEnv {
		g.mu.Lock()
		g.revoked = ti.Token
		g.mu.Unlock()
	}
	g.notify()
	return err
}

// Expire handles an Unauthorized response from any feature: the token is
// dropped and listeners send the user back to login.
func (g *Gate) Expire() {
	ti, _ := g.store.Load()
	if ti != nil {
		g.mu.Lock()
		g.revoked = ti.Token
		g.mu.Unlock()
	}
	if err := g.store.Clear(); err != nil {
		g.log.Warn("clear credentials", "err", err)
	}
	g.log.Info("session expired")
	g.notify()
}

// OnLogout registers fn to run after Logout or Expire, e.g. resetting
// per-user state.
func (g *Gate) OnLogout(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

func (g *Gate) notify() {
	g.mu.Lock()
	fns := append([]func(){}, g.listeners...)
	g.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
