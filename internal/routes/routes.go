package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/config"
	"pulse-server/internal/handlers"
	"pulse-server/internal/middleware"
	"pulse-server/internal/models"
	"pulse-server/internal/service"
	"pulse-server/internal/store"
)

// Services bundles what the HTTP surface needs.
type Services struct {
	Store          store.Store
	Residents      *service.ResidentService
	Visits         *service.VisitService
	Prioritization *service.Prioritization
	Settings       *service.SettingsService
	Recomputer     *service.Recomputer
	Users          *service.UserService
	Reports        *service.ReportService
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, svc Services, cfg *config.Config, log *zap.Logger) {
	authHandler := handlers.NewAuthHandler(svc.Store, cfg, log)
	residentHandler := handlers.NewResidentHandler(svc.Residents, svc.Visits, svc.Prioritization, log)
	visitHandler := handlers.NewVisitHandler(svc.Visits, log)
	riskHandler := handlers.NewRiskHandler(svc.Prioritization, log)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Recomputer, log)
	userHandler := handlers.NewUserHandler(svc.Users, log)
	reportHandler := handlers.NewReportHandler(svc.Reports, log)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)
	}

	// Authenticated routes, open to every staff role
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		private.GET("/auth/profile", authHandler.GetProfile)

		residentRoutes := private.Group("/residents")
		{
			residentRoutes.GET("", residentHandler.ListResidents)
			residentRoutes.POST("", residentHandler.CreateResident)
			residentRoutes.GET("/:id", residentHandler.GetResident)
			residentRoutes.PUT("/:id", residentHandler.UpdateResident)
			residentRoutes.GET("/:id/risk", residentHandler.GetResidentRisk)
			residentRoutes.GET("/:id/visits", residentHandler.GetResidentVisits)
		}

		visitRoutes := private.Group("/visits")
		{
			visitRoutes.POST("", visitHandler.CreateVisit)
			visitRoutes.GET("", visitHandler.ListVisits)
		}

		private.GET("/risk/ranked", riskHandler.GetRanked)
		private.GET("/dashboard", riskHandler.GetDashboard)
		private.GET("/reports/:type", reportHandler.GetReport)

		// Admin-only routes
		settingsRoutes := private.Group("/settings")
		settingsRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			settingsRoutes.GET("", settingsHandler.GetSettings)
			settingsRoutes.PUT("", settingsHandler.UpdateSettings)
			settingsRoutes.POST("/recompute", settingsHandler.RecomputeScores)
		}

		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.POST("", userHandler.CreateUser)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
