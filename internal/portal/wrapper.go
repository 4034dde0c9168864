// Package portal is the shared layer every portal app goes through: the
// session gate, logout, and generic document operations over named collections.
package portal

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/switzea/portal/internal/identity"
	"github.com/switzea/portal/internal/interaction"
	"github.com/switzea/portal/pkg/database"
	"github.com/switzea/portal/pkg/messagequeue"
)

// DefaultLoginPath is where unauthenticated users are sent.
const DefaultLoginPath = "/index.html"

// Options configures a Wrapper.
type Options struct {
	Identity identity.Provider
	Store    database.DocumentStore
	// Events receives document change events. Optional.
	Events     messagequeue.MessageQueue
	EventQueue string
	Logger     *zap.Logger
	LoginPath  string
	Now        func() time.Time
}

// Wrapper mediates every call between app code and the identity and
// document services. It holds no per-request state; bind the caller's UI with
// WithUI.
type Wrapper struct {
	identity   identity.Provider
	store      database.DocumentStore
	events     messagequeue.MessageQueue
	eventQueue string
	logger     *zap.Logger
	loginPath  string
	now        func() time.Time
	ui         interaction.UI
}

// New creates a Wrapper. Identity and Store are required.
func New(opts Options) (*Wrapper, error) {
	if opts.Identity == nil {
		return nil, errors.New("portal: identity provider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("portal: document store is required")
	}
	w := &Wrapper{
		identity:   opts.Identity,
		store:      opts.Store,
		events:     opts.Events,
		eventQueue: opts.EventQueue,
		logger:     opts.Logger,
		loginPath:  opts.LoginPath,
		now:        opts.Now,
		ui:         interaction.Nop{},
	}
	if w.events == nil {
		w.events = messagequeue.Nop{}
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.loginPath == "" {
		w.loginPath = DefaultLoginPath
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w, nil
}

// WithUI returns a copy of w that interacts with the user through ui.
func (w *Wrapper) WithUI(ui interaction.UI) *Wrapper {
	c := *w
	c.ui = ui
	return &c
}

// LoginPath is the login destination used for redirects.
func (w *Wrapper) LoginPath() string {
	return w.loginPath
}

// CurrentSession returns the session a previous CheckAuth bound to ctx, or nil.
func CurrentSession(ctx context.Context) *identity.Session {
	return identity.SessionFromContext(ctx)
}
