package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/fitgroup-api/internal/handler"
	"github.com/noah-isme/fitgroup-api/internal/middleware"
	"github.com/noah-isme/fitgroup-api/internal/models"
	"github.com/noah-isme/fitgroup-api/internal/service"
	"github.com/noah-isme/fitgroup-api/pkg/config"
	"github.com/noah-isme/fitgroup-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fitgroup-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fitgroup-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	tokens   middleware.TokenValidator
	goals    *handler.GoalHandler
	records  *handler.RecordHandler
	pipeline *handler.PipelineHandler
	system   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.system.Health)
	r.GET("/ready", h.system.Ready)
	r.GET("/metrics", h.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.JWT(h.tokens))

	groups := api.Group("/groups/:id")
	groups.GET("/goals/current", h.goals.Current)
	groups.POST("/goals/regenerate", h.goals.Regenerate)
	groups.PUT("/goals/current/selection", h.goals.Select)
	groups.GET("/goal-records", h.records.List)

	admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/groups/:id/goal-records/export", h.records.Export)
	admin.POST("/pipeline/stats", h.pipeline.RunStats)
	admin.POST("/pipeline/achievements", h.pipeline.RunAchievements)
	admin.POST("/pipeline/records", h.pipeline.RunRecords)
	admin.GET("/pipeline/runs", h.pipeline.Runs)
	admin.GET("/system/metrics", h.system.Summary)

	return r
}
