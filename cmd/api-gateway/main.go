package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/conduct-api/api/swagger"
	"github.com/noah-isme/conduct-api/internal/handler"
	"github.com/noah-isme/conduct-api/internal/middleware"
	"github.com/noah-isme/conduct-api/internal/models"
	"github.com/noah-isme/conduct-api/internal/repository"
	"github.com/noah-isme/conduct-api/internal/service"
	"github.com/noah-isme/conduct-api/pkg/cache"
	"github.com/noah-isme/conduct-api/pkg/config"
	"github.com/noah-isme/conduct-api/pkg/database"
	"github.com/noah-isme/conduct-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/conduct-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/conduct-api/pkg/middleware/requestid"
)

// @title Conduct Tracker API
// @version 0.1.0
// @description Weekly classroom conduct tracking and ranking service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is optional: caching and the shared submission guard degrade
	// gracefully when it is unreachable.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without shared cache", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()

	classRepo := repository.NewClassRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	violationRepo := repository.NewViolationRepository(db)
	conductRepo := repository.NewConductRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(rosterRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	classSvc := service.NewClassService(classRepo, validate, logr)
	rosterSvc := service.NewRosterService(rosterRepo, logr)
	violationSvc := service.NewViolationService(violationRepo, cacheRepo, cfg.Tracking.CatalogCacheTTL, logr)
	rankingSvc := service.NewRankingService(service.RankingServiceParams{
		Classes:       classRepo,
		Roster:        rosterRepo,
		Catalog:       violationSvc,
		Logs:          conductRepo,
		Cache:         cacheRepo,
		CacheTTL:      cfg.Rankings.CacheTTL,
		ExportEnabled: cfg.Rankings.ExportEnabled,
		Validator:     validate,
		Logger:        logr,
	})
	trackingSvc := service.NewTrackingService(service.TrackingServiceParams{
		Classes:     classRepo,
		Roster:      rosterRepo,
		Catalog:     violationSvc,
		Logs:        conductRepo,
		Guard:       cacheRepo,
		Invalidator: rankingSvc,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
		GuardTTL:    cfg.Tracking.SubmitGuardTTL,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	classHandler := handler.NewClassHandler(classSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	violationHandler := handler.NewViolationHandler(violationSvc)
	trackingHandler := handler.NewTrackingHandler(trackingSvc)
	rankingHandler := handler.NewRankingHandler(rankingSvc)
	dutyHandler := handler.NewDutyHandler(trackingSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/classes/:id", classHandler.Get)
	authed.PUT("/classes/:id/schedule",
		middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher),
		classHandler.UpdateSchedule)
	authed.GET("/users", rosterHandler.List)
	authed.GET("/violations", violationHandler.List)

	tracker := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleMonitor, models.RoleGroupLeader)
	authed.GET("/reports/weekly", trackingHandler.Weekly)
	authed.POST("/reports/bulk", tracker, trackingHandler.SubmitDay)
	authed.DELETE("/reports/:id", tracker, trackingHandler.Delete)
	authed.GET("/reports/note", trackingHandler.Note)
	authed.POST("/reports/note", tracker, trackingHandler.SaveNote)
	authed.GET("/reports/detailed", rankingHandler.Detailed)

	authed.GET("/rankings", rankingHandler.Standings)
	authed.GET("/rankings/export", rankingHandler.Export)

	authed.GET("/duty/cells", dutyHandler.Grid)
	authed.POST("/duty/cells", tracker, dutyHandler.Toggle)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
