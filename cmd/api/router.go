package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/simplysydnee/icanswimbeta-sub004/api/swagger"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/handler"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/middleware"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/config"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/logger"
	corsmiddleware "github.com/simplysydnee/icanswimbeta-sub004/pkg/middleware/cors"
	reqidmiddleware "github.com/simplysydnee/icanswimbeta-sub004/pkg/middleware/requestid"
)

type routerDeps struct {
	identity middleware.Identity
	metrics  middleware.RequestObserver
	bookings *handler.BookingHandler
	sessions *handler.SessionHandler
	funding  *handler.FundingHandler
	floating *handler.FloatingHandler
	progress *handler.ProgressHandler
	ops      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.ops.Health)
	r.GET("/ready", deps.ops.Ready)
	r.GET("/metrics", deps.ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	booker := middleware.RequireRoles(models.RoleAdmin, models.RoleParent)

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix, middleware.JWT(deps.identity))

	bookings := api.Group("/bookings")
	bookings.POST("", booker, deps.bookings.Create)
	bookings.POST("/bulk-create", admin, deps.bookings.BulkCreate)
	bookings.POST("/bulk", admin, deps.bookings.Bulk)
	bookings.GET("/:id", deps.bookings.Get)
	bookings.POST("/:id/cancel", booker, deps.bookings.Cancel)
	bookings.POST("/:id/reschedule", admin, deps.bookings.Reschedule)
	bookings.PATCH("/:id/instructor", admin, deps.bookings.ReassignInstructor)
	bookings.POST("/:id/complete", staff, deps.bookings.Complete)
	bookings.POST("/:id/no-show", staff, deps.bookings.NoShow)

	sessions := api.Group("/sessions")
	sessions.GET("", deps.sessions.List)
	sessions.POST("", admin, deps.sessions.Create)
	sessions.GET("/:id", deps.sessions.Get)
	sessions.POST("/:id/cancel", admin, deps.sessions.Cancel)

	api.POST("/authorizations", admin, deps.funding.Attach)
	api.PATCH("/authorizations/:id/status", admin, deps.funding.UpdateStatus)

	swimmers := api.Group("/swimmers/:id")
	swimmers.GET("/eligibility", deps.funding.Eligibility)
	swimmers.GET("/authorizations", admin, deps.funding.List)
	swimmers.POST("/authorizations/renewal", staff, deps.funding.RequestRenewal)
	swimmers.GET("/skills", deps.progress.Skills)
	swimmers.PATCH("/skills", staff, deps.progress.UpdateSkills)
	swimmers.PUT("/skills/:skillId", staff, deps.progress.SetSkill)
	swimmers.PUT("/targets/:targetId", staff, deps.progress.SetTarget)
	swimmers.PUT("/strategies/:strategyId", staff, deps.progress.SetStrategy)

	floating := api.Group("/floating-sessions")
	floating.GET("", deps.floating.List)
	floating.POST("/:id/claim", booker, deps.floating.Claim)

	return r
}
