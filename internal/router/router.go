package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/handler"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Portal  *handler.PortalHandler
	Proctor *handler.ProctorHandler
	Monitor *handler.MonitorWSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Violation reports can burst on flaky clients; cap per IP.
	portalLimiter := middleware.NewRateLimiter(120, time.Minute)

	// Candidate portal (JWT).
	portalAPI := router.Group("/api/v1/portal")
	portalAPI.Use(
		middleware.RequireCandidateJWT(authService),
		portalLimiter.Middleware(),
	)
	{
		portalAPI.GET("/exams/available", handlers.Portal.ListAvailableExams)
		portalAPI.GET("/exams/:exam_id/session", handlers.Portal.GetSession)
		portalAPI.POST("/attempts/:attempt_id/answers", handlers.Portal.SaveAnswer)
		portalAPI.POST("/attempts/:attempt_id/answers/bulk", handlers.Portal.SaveAnswersBulk)
		portalAPI.POST("/attempts/:attempt_id/submit", handlers.Portal.Submit)
		portalAPI.POST("/attempts/:attempt_id/violations", handlers.Portal.RecordViolation)
		portalAPI.GET("/attempts/:attempt_id", handlers.Portal.GetAttempt)
	}

	// Proctor API (JWT).
	proctorAPI := router.Group("/api/v1/proctor")
	proctorAPI.Use(middleware.RequireProctorJWT(authService))
	{
		proctorAPI.GET("/exams/:exam_id/results", handlers.Proctor.GetExamResults)
		proctorAPI.POST("/exams/:exam_id/publish-results", handlers.Proctor.PublishResults)
	}

	// WebSocket monitor stream (proctor WS auth via ?token=).
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireProctorWSAuth(authService))
	{
		ws.GET("/proctor/exams/:exam_id/monitor", handlers.Monitor.MonitorExamStream)
	}

	return router
}
