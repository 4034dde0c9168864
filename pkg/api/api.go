package api

import (
	"context"

	"github.com/gin-gonic/gin"
)

// API defines the interface for API services.
type API interface {
	RegisterRoutes(router *gin.Engine)
	Run(addr string) error
	Shutdown(ctx context.Context) error
}
