package server

import (
	"time"

	"my-publisher/domain/repository"
	"my-publisher/infrastructure/realtime"
	httpHandler "my-publisher/interfaces/http"
	"my-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	healthHandler httpHandler.IHealthHandler,
	publishHandler httpHandler.IPublishHandler,
	connectionHandler httpHandler.IConnectionHandler,
	scheduleHandler httpHandler.IScheduleHandler,
	analyticsHandler httpHandler.IAnalyticsHandler,
	webhookHandler httpHandler.IWebhookHandler,
	hub *realtime.Hub,
	userRepository repository.IUser,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/status", healthHandler.Status)

	// Platform callbacks authenticate by signature, not by bearer token.
	router.POST("/webhooks/:platform", webhookHandler.Receive)

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	api.POST("/publish", publishHandler.Publish)

	api.POST("/connections", connectionHandler.Connect)
	api.GET("/connections", connectionHandler.List)
	api.POST("/connections/:platform/test", connectionHandler.TestConnection)
	api.DELETE("/connections/:platform", connectionHandler.Disconnect)

	api.GET("/scheduled", scheduleHandler.List)
	api.DELETE("/scheduled/:id", scheduleHandler.Cancel)

	api.GET("/analytics/:content_id/:platform", analyticsHandler.GetMetrics)
	api.GET("/reports", analyticsHandler.ListReports)
	api.GET("/reports/export", analyticsHandler.ExportReports)
	api.GET("/reports/:content_id", analyticsHandler.GetReport)

	api.GET("/events", hub.Serve)

	return router
}
