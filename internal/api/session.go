package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/switzea/portal/internal/identity"
	"github.com/switzea/portal/internal/middleware"
	"github.com/switzea/portal/internal/portal"
)

type sessionLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// handleSessionLogin exchanges the ID token of a fresh client-side sign-in for
// a session cookie.
func (s *Server) handleSessionLogin(c *gin.Context) {
	if s.sessions == nil {
		c.JSON(http.StatusNotImplemented, middleware.ErrorResponse{Error: "session login is not configured"})
		return
	}
	var req sessionLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: "Invalid request payload: " + err.Error()})
		return
	}

	cookie, err := s.sessions.ExchangeIDToken(c.Request.Context(), req.IDToken, s.cfg.SessionCookieTTL)
	if err != nil {
		s.logFailure("Session login rejected", err, zap.String("client_ip", c.ClientIP()))
		msg := "Invalid or expired authentication token"
		if errors.Is(err, identity.ErrStaleSignIn) {
			msg = "Recent sign-in required"
		}
		c.JSON(http.StatusUnauthorized, middleware.ErrorResponse{Error: msg, Redirect: s.wrapper.LoginPath()})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.cfg.SessionCookieName, cookie, int(s.cfg.SessionCookieTTL.Seconds()), "/", "", s.cfg.Release(), true)
	c.JSON(http.StatusOK, gin.H{"status": "success", "redirect": s.cfg.DashboardPath})
}

// handleLogout ends the caller's session. It is reached from the navigation
// bar form or from scripts, so it answers in either HTML or JSON.
func (s *Server) handleLogout(c *gin.Context) {
	ctx := c.Request.Context()
	ui := middleware.RequestUI(c)
	w := s.wrapper.WithUI(ui)

	session, err := w.CheckAuth(ctx)
	if err != nil {
		if !errors.Is(err, portal.ErrUnauthenticated) {
			c.AbortWithStatus(http.StatusRequestTimeout)
			return
		}
		// nothing to end; CheckAuth already pointed the caller at the login page
		s.clearSession(c)
		s.finishLogout(c, http.StatusUnauthorized, false)
		return
	}

	ok, err := w.Logout(identity.WithSession(ctx, session))
	if err != nil {
		s.finishLogout(c, http.StatusInternalServerError, false)
		return
	}
	if ok {
		s.clearSession(c)
	}
	s.finishLogout(c, http.StatusOK, ok)
}

func (s *Server) finishLogout(c *gin.Context, status int, loggedOut bool) {
	if !wantsHTML(c) {
		respond(c, status, gin.H{"loggedOut": loggedOut})
		return
	}
	ui := middleware.RequestUI(c)
	if dest, ok := ui.RedirectTarget(); ok {
		c.Redirect(http.StatusSeeOther, dest)
		return
	}
	if status >= http.StatusBadRequest {
		renderHTML(c, status, s.noticePage(ui.Notices()))
		return
	}
	// declined: back to where the user came from
	back := s.cfg.DashboardPath
	if ref := c.GetHeader("Referer"); ref != "" {
		back = ref
	}
	c.Redirect(http.StatusSeeOther, back)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.cfg.SessionCookieName, "", -1, "/", "", s.cfg.Release(), true)
}

func wantsHTML(c *gin.Context) bool {
	return c.ContentType() == "application/x-www-form-urlencoded" || strings.Contains(c.GetHeader("Accept"), "text/html")
}
