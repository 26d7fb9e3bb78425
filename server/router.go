package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"streamclips/infrastructure/realtime"
	httpHandler "streamclips/interfaces/http"
)

func InitiateRouter(
	streamerHandler httpHandler.IStreamerHandler,
	clipHandler httpHandler.IClipHandler,
	hub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")

	api.POST("/streamers", streamerHandler.Register)
	api.GET("/streamers", streamerHandler.List)
	api.GET("/streams/active", streamerHandler.ActiveStreams)

	api.GET("/clips", clipHandler.List)
	api.GET("/clips/:clipId", clipHandler.Get)
	api.POST("/clips/:clipId/approve", clipHandler.Approve)
	api.POST("/clips/:clipId/reject", clipHandler.Reject)

	if hub != nil {
		api.GET("/events", hub.Serve)
	}

	return router
}
