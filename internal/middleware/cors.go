package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/switzea/portal/internal/config"
	"github.com/switzea/portal/internal/interaction"
)

// CORSMiddleware allows the configured client origin to call the API with credentials.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	clientURL := cfg.ClientURL
	if clientURL == "" {
		clientURL = "http://localhost:3000"
	}

	return cors.New(cors.Config{
		AllowOrigins:     []string{clientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", interaction.ConfirmHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
