// Package identity observes the Firebase session of the caller.
//
// Session state is modelled as a notification stream (StateSource). Gates that only
// need the current state take its first value and unsubscribe, see FirstState.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned by operations that need a bound session.
var ErrNoSession = errors.New("no session bound to context")

// Session is the authenticated principal of a request.
type Session struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	Authenticated bool      `json:"authenticated"`
	AuthTime      time.Time `json:"authTime"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// StateSource delivers session-state notifications. A nil session means signed out.
// The returned function unsubscribes fn; it is safe to call more than once.
type StateSource interface {
	OnAuthStateChanged(ctx context.Context, fn func(*Session)) (unsubscribe func())
}

// Provider is the identity service as the portal consumes it.
type Provider interface {
	StateSource
	// SignOut terminates the session bound to ctx.
	SignOut(ctx context.Context) error
}

// FirstState subscribes to src, waits for its first notification and unsubscribes.
// It returns ctx.Err() if ctx ends before any notification arrives.
func FirstState(ctx context.Context, src StateSource) (*Session, error) {
	first := make(chan *Session, 1)
	var once sync.Once
	unsubscribe := src.OnAuthStateChanged(ctx, func(s *Session) {
		once.Do(func() { first <- s })
	})
	defer unsubscribe()

	select {
	case s := <-first:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type sessionKey struct{}

// WithSession binds s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session bound to ctx, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
