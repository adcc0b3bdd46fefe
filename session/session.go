// Package session holds the signed-in user for the lifetime of a client.
// It is written only by sign-in and sign-out and read by every
// user-scoped repository call.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrUnauthenticated = errors.New("session: no authenticated user")

type Session struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
	// ExpiresAt is zero when the token carries no expiry.
	ExpiresAt time.Time
}

type Holder struct {
	mu      sync.RWMutex
	current *Session
	now     func() time.Time
}

func NewHolder() *Holder {
	return &Holder{now: time.Now}
}

// NewHolderWithClock is NewHolder with an injectable clock for expiry checks.
func NewHolderWithClock(now func() time.Time) *Holder {
	return &Holder{now: now}
}

// Begin starts s, replacing any previous session.
func (h *Holder) Begin(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = &s
}

// End clears the session.
func (h *Holder) End() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = nil
}

// Current returns the active session. Expired sessions are not active.
func (h *Holder) Current() (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.current == nil {
		return Session{}, false
	}
	if !h.current.ExpiresAt.IsZero() && !h.now().Before(h.current.ExpiresAt) {
		return Session{}, false
	}
	return *h.current, true
}

func (h *Holder) UserID() (uuid.UUID, error) {
	s, ok := h.Current()
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}
	return s.UserID, nil
}

// AccessToken returns the bearer credential, or "" when signed out.
func (h *Holder) AccessToken() string {
	s, ok := h.Current()
	if !ok {
		return ""
	}
	return s.AccessToken
}
