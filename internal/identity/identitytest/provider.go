// Package identitytest provides an in-memory identity.Provider for tests.
package identitytest

import (
	"context"
	"sync"

	"github.com/switzea/portal/internal/identity"
)

// Provider maps credential values to sessions. Unknown or missing credentials
// resolve to a nil session. Notifications are delivered synchronously.
type Provider struct {
	mu          sync.Mutex
	sessions    map[string]*identity.Session
	signOutErr  error
	signedOut   []string
	subscribers int
}

// New returns an empty Provider.
func New() *Provider {
	return &Provider{sessions: make(map[string]*identity.Session)}
}

// Add registers a session for a credential value.
func (p *Provider) Add(credential string, s *identity.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[credential] = s
}

// FailSignOut makes every later SignOut return err.
func (p *Provider) FailSignOut(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOutErr = err
}

// SignedOut lists the UIDs signed out so far.
func (p *Provider) SignedOut() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.signedOut...)
}

// Subscribers is the number of subscriptions not yet cancelled.
func (p *Provider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subscribers
}

// OnAuthStateChanged implements identity.StateSource.
func (p *Provider) OnAuthStateChanged(ctx context.Context, fn func(*identity.Session)) func() {
	var s *identity.Session
	p.mu.Lock()
	if cred, ok := identity.CredentialFromContext(ctx); ok {
		s = p.sessions[cred.Value]
	}
	p.subscribers++
	p.mu.Unlock()

	fn(s)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.subscribers--
			p.mu.Unlock()
		})
	}
}

// SignOut implements identity.Provider.
func (p *Provider) SignOut(ctx context.Context) error {
	s := identity.SessionFromContext(ctx)
	if s == nil {
		return identity.ErrNoSession
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signOutErr != nil {
		return p.signOutErr
	}
	for cred, known := range p.sessions {
		if known != nil && known.UID == s.UID {
			delete(p.sessions, cred)
		}
	}
	p.signedOut = append(p.signedOut, s.UID)
	return nil
}
