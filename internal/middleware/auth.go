package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/switzea/portal/internal/identity"
	"github.com/switzea/portal/internal/interaction"
	"github.com/switzea/portal/internal/portal"
)

// Gin context keys.
const (
	UserIDKey = "userID"
	uiKey     = "portal.ui"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// Credentials binds the caller's credential to the request context: the
// session cookie if present, else an "Authorization: Bearer" ID token.
// Requests without a credential pass through unchanged.
func Credentials(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cred identity.Credential
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			cred = identity.Credential{Kind: identity.SessionCookie, Value: v}
		} else if parts := strings.Fields(c.GetHeader("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			cred = identity.Credential{Kind: identity.IDToken, Value: parts[1]}
		}
		if cred.Value != "" {
			c.Request = c.Request.WithContext(identity.WithCredential(c.Request.Context(), cred))
		}
		c.Next()
	}
}

// RequestUI returns the interaction of the current request, creating it on first use.
func RequestUI(c *gin.Context) *interaction.Request {
	if v, ok := c.Get(uiKey); ok {
		if ui, ok := v.(*interaction.Request); ok {
			return ui
		}
	}
	ui := interaction.NewRequest(c.Request)
	c.Set(uiKey, ui)
	return ui
}

// RequireSession rejects API requests without a session with 401 and the
// login destination. Accepted requests carry the session in their context.
func RequireSession(w *portal.Wrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		ui := RequestUI(c)
		s, err := w.WithUI(ui).CheckAuth(c.Request.Context())
		if err != nil {
			if errors.Is(err, portal.ErrUnauthenticated) {
				dest, _ := ui.RedirectTarget()
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated", Redirect: dest})
				return
			}
			// the client went away before the identity service answered
			c.AbortWithStatus(http.StatusRequestTimeout)
			return
		}
		c.Request = c.Request.WithContext(identity.WithSession(c.Request.Context(), s))
		c.Set(UserIDKey, s.UID)
		c.Next()
	}
}
