package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Timetable generation and management service
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
		logr.Sugar().Fatalw("postgres unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis unavailable", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	schoolConfigRepo := repository.NewSchoolConfigRepository(db)
	priorityRepo := repository.NewPriorityRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, logr, cfg.Solver.SessionTTL)

	metricsSvc := service.NewMetricsService()
	historySvc := service.NewHistoryService(historyRepo, service.HistoryServiceConfig{
		Enabled:   cfg.History.Enabled,
		QueueSize: cfg.History.QueueSize,
		Retention: cfg.History.Retention,
	}, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	historySvc.Start(rootCtx)
	defer historySvc.Stop()

	teacherSvc := service.NewTeacherService(teacherRepo, historySvc, validate, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, historySvc, validate, logr)
	schoolConfigSvc := service.NewSchoolConfigService(schoolConfigRepo, historySvc, validate, logr)
	prioritySvc := service.NewPriorityService(priorityRepo, classRepo, historySvc, validate, logr)
	timetableSvc := service.NewTimetableService(
		teacherRepo,
		classRepo,
		priorityRepo,
		schoolConfigRepo,
		sessionRepo,
		historySvc,
		metricsSvc,
		service.TimetableServiceConfig{
			TimeBudget:       cfg.Solver.TimeBudget,
			RepairIterations: cfg.Solver.RepairIterations,
			RotationCount:    cfg.Solver.RotationCount,
		},
		validate,
		logr,
	)
	scenarioSvc := service.NewScenarioService(sessionRepo, teacherRepo, classRepo, schoolConfigRepo, historySvc, validate, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("export storage unavailable", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.URLTTL)
	exportSvc := service.NewExportService(sessionRepo, teacherRepo, schoolConfigRepo, exportStore, exportSigner, historySvc, cfg.Export.Retention, logr)

	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	schoolConfigHandler := handler.NewSchoolConfigHandler(schoolConfigSvc)
	priorityHandler := handler.NewPriorityHandler(prioritySvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	scenarioHandler := handler.NewScenarioHandler(scenarioSvc)
	historyHandler := handler.NewHistoryHandler(historySvc, logr)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.GET("/exports/download", exportHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/teachers", teacherHandler.List)
		api.POST("/teachers", teacherHandler.Create)
		api.GET("/teachers/:id", teacherHandler.Get)
		api.PUT("/teachers/:id", teacherHandler.Update)
		api.DELETE("/teachers/:id", teacherHandler.Delete)

		api.GET("/classes", classHandler.List)
		api.POST("/classes", classHandler.Create)
		api.GET("/classes/:id", classHandler.Get)
		api.PUT("/classes/:id", classHandler.Update)
		api.DELETE("/classes/:id", classHandler.Delete)

		api.GET("/school-config", schoolConfigHandler.Get)
		api.PUT("/school-config", schoolConfigHandler.Update)

		api.GET("/priorities", priorityHandler.List)
		api.GET("/priorities/:classId", priorityHandler.Get)
		api.PUT("/priorities/:classId", priorityHandler.Upsert)
		api.DELETE("/priorities/:classId", priorityHandler.Delete)

		api.POST("/timetable/generate", timetableHandler.Generate)
		api.GET("/timetable", timetableHandler.Current)
		api.GET("/timetable/teachers", timetableHandler.TeacherView)
		api.GET("/timetable/rotations", timetableHandler.Rotations)
		api.POST("/timetable/edit", timetableHandler.Edit)
		api.POST("/timetable/export", exportHandler.Export)
		api.GET("/timetable/resolved", scenarioHandler.Resolved)

		api.GET("/scenarios", scenarioHandler.State)
		api.PUT("/scenarios", scenarioHandler.Update)
		api.DELETE("/scenarios", scenarioHandler.Clear)

		api.GET("/history", historyHandler.List)
		api.DELETE("/history", historyHandler.Clear)

		api.GET("/metrics/summary", metricsHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
