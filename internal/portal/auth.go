package portal

import (
	"context"

	"go.uber.org/zap"

	"github.com/switzea/portal/internal/identity"
	"github.com/switzea/portal/internal/interaction"
	"github.com/switzea/portal/internal/metrics"
)

// LogoutQuestion is asked before signing the user out.
const LogoutQuestion = "Er du sikker på at du vil logge ud?"

// CheckAuth waits for the first session-state notification. A session is
// returned as is; no session redirects to the login page and yields
// ErrUnauthenticated. If ctx ends first, ctx.Err() is returned and nothing
// else happens.
func (w *Wrapper) CheckAuth(ctx context.Context) (*identity.Session, error) {
	s, err := identity.FirstState(ctx, w.identity)
	if err != nil {
		return nil, err
	}
	if s == nil {
		metrics.AuthChecks.WithLabelValues(metrics.ResultDenied).Inc()
		w.logger.Info("No session, redirecting to login", zap.String("login_path", w.loginPath))
		w.ui.Redirect(ctx, w.loginPath)
		return nil, ErrUnauthenticated
	}
	metrics.AuthChecks.WithLabelValues(metrics.ResultOK).Inc()
	w.logger.Debug("User authenticated", zap.String("uid", s.UID), zap.String("email", s.Email))
	return s, nil
}

// Logout asks for confirmation, ends the session bound to ctx and sends the
// user to the login page. A declined confirmation returns false and a nil error.
func (w *Wrapper) Logout(ctx context.Context) (bool, error) {
	if !w.ui.Confirm(ctx, LogoutQuestion) {
		return false, nil
	}
	if err := w.identity.SignOut(ctx); err != nil {
		w.logger.Error("Logout failed", zap.Error(err))
		w.ui.Notify(ctx, interaction.LevelError, "Fejl ved logout: "+err.Error())
		return false, &OpError{Op: "logout", Err: err}
	}
	if s := identity.SessionFromContext(ctx); s != nil {
		w.logger.Info("User signed out", zap.String("uid", s.UID))
	}
	w.ui.Redirect(ctx, w.loginPath)
	return true, nil
}
