package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/booking"
	"healthcare-scheduling-server/internal/config"
	"healthcare-scheduling-server/internal/handlers"
	"healthcare-scheduling-server/internal/metrics"
	"healthcare-scheduling-server/internal/middleware"
	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/utils"
)

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Booking   *booking.Service
	Log       *zap.Logger
	Metrics   *metrics.Collector
	Gatherer  prometheus.Gatherer
	JWTSecret string
	RateLimit config.RateLimitConfig
	// RetryAfter is advertised on 503 responses caused by a busy calendar.
	RetryAfter time.Duration
	// Ping checks backing stores for /health. May be nil.
	Ping func(context.Context) error
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) error {
	if err := utils.RegisterValidators(); err != nil {
		return err
	}

	appointmentHandler := handlers.NewAppointmentHandler(deps.Booking, deps.Log, deps.RetryAfter)
	doctorHandler := handlers.NewDoctorHandler(deps.Booking, deps.Log, deps.RetryAfter)

	router.Use(middleware.RequestID(), middleware.Observe(deps.Metrics, deps.Log))

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.NewRateLimiter(deps.RateLimit.RequestsPerSecond, deps.RateLimit.Burst).Middleware())
	private.Use(middleware.AuthMiddleware(deps.JWTSecret))
	{
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleDoctor, models.RoleAdmin), appointmentHandler.CreateAppointment)

			// Visibility is narrowed per role inside the handler
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
		}

		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id/schedule", doctorHandler.GetDoctorSchedule)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				deps.Log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	return nil
}
