package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/switzea/portal/internal/middleware"
)

// RegisterRoutes sets up every route of the portal on router.
//
//	GET    /health
//	GET    /metrics
//	POST   /sessionLogin                          {"idToken": "..."}
//	POST   /logout                                confirm=yes
//	GET    /navigation.css, /navigation.html
//	GET    /:page                                 index.html is public, app pages need a session
//	GET    /api/v1/collections/:collection        ?orderBy=createdAt&direction=desc
//	POST   /api/v1/collections/:collection        ?required=Name,Email
//	PATCH  /api/v1/collections/:collection/:id
//	DELETE /api/v1/collections/:collection/:id    X-Portal-Confirm: yes
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(s.metrics))

	router.POST("/sessionLogin", s.limiter.Middleware(), s.handleSessionLogin)
	s.nav.Register(router, s.handleLogout)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, s.cfg.DashboardPath)
	})
	router.GET("/:page", s.handlePage)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireSession(s.wrapper), s.limiter.Middleware())
	{
		v1.GET("/collections/:collection", s.handleListDocuments)
		v1.POST("/collections/:collection", s.handleCreateDocument)
		v1.PATCH("/collections/:collection/:id", s.handleUpdateDocument)
		v1.DELETE("/collections/:collection/:id", s.handleDeleteDocument)
	}

	s.logger.Info("API routes registered")
}
