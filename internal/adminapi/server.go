package adminapi

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"filestore-consensus/internal/coordinator"
)

func secondsToDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

// Config carries the adminapi server's construction parameters.
type Config struct {
	JWTSecret  string
	TokenTTL   int64 // seconds
	APIKeyHash string
}

// NewRouter builds a configured Gin engine exposing coord over HTTP,
// following the teacher's cmd/server wiring of internal/api.
func NewRouter(coord *coordinator.Coordinator, cfg Config, logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = log.Default()
	}
	auth := NewAuthService(cfg.JWTSecret, secondsToDuration(cfg.TokenTTL), cfg.APIKeyHash)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(Logger(logger), Recovery(logger))

	handler := NewHandler(coord, auth)
	handler.Register(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
