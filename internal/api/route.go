package api

import (
	"Festa/internal/api/middleware"
	"Festa/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.POST("/batch", group.MediaHandler.Batch)
			mediaGroup.GET("/gallery", group.MediaHandler.Gallery)
			mediaGroup.GET("/state", group.MediaHandler.State)
			mediaGroup.DELETE("/:media_id", group.MediaHandler.Remove)
			mediaGroup.POST("/:media_id/watermark", group.MediaHandler.Watermark)
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
			mediaGroup.POST("/upload/reset", group.MediaHandler.ResetUpload)
		}

		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/progress", group.WsHandler.Connect)
		}
	}

	return r
}
