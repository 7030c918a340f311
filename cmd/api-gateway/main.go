package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fitgroup-api/api/swagger"
	"github.com/noah-isme/fitgroup-api/internal/handler"
	"github.com/noah-isme/fitgroup-api/internal/repository"
	"github.com/noah-isme/fitgroup-api/internal/service"
	"github.com/noah-isme/fitgroup-api/pkg/cache"
	"github.com/noah-isme/fitgroup-api/pkg/config"
	"github.com/noah-isme/fitgroup-api/pkg/database"
	"github.com/noah-isme/fitgroup-api/pkg/logger"
	"github.com/noah-isme/fitgroup-api/pkg/scheduler"
)

// @title FitGroup API
// @version 1.0.0
// @description Weekly group goal pipeline: stats, predicted goals, achievements, rewards and audit records.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to apply migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	loc := cfg.Pipeline.Location()
	metrics := service.NewMetricsService()

	groups := repository.NewGroupRepository(db)
	telemetry := repository.NewTelemetryRepository(db)
	points := repository.NewPointsRepository(db)
	statsRepo := repository.NewWeeklyStatsRepository(db)
	goalRepo := repository.NewWeeklyGoalRepository(db)
	recordRepo := repository.NewGoalRecordRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	regenRepo := repository.NewRegenerationRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Goals.CacheTTL, logr, true)
	predictor := service.NewPredictionClient(service.PredictionClientConfig{
		BaseURL:         cfg.Prediction.BaseURL,
		ConnectTimeout:  cfg.Prediction.ConnectTimeout,
		ResponseTimeout: cfg.Prediction.ResponseTimeout,
	}, metrics, logr)

	aggregator := service.NewStatsAggregatorService(groups, telemetry, statsRepo, metrics, logger.Stage(logr, "weekly_stats"))
	goals := service.NewGoalService(groups, statsRepo, goalRepo, predictor, cacheSvc, regenRepo, metrics, logr, service.GoalConfig{
		Location:             loc,
		CacheTTL:             cfg.Goals.CacheTTL,
		RegenerationCooldown: cfg.Goals.RegenerationCooldown,
		GenerationTimeout:    cfg.Goals.GenerationTimeout,
	})
	rewards := service.NewRewardService(groups, points, cfg.Rewards.Points, metrics, logr)
	achievements := service.NewAchievementService(groups, goalRepo, statsRepo, rewards, metrics, logger.Stage(logr, "achievement_check"), loc)
	records := service.NewGoalRecordService(groups, recordRepo, goalRepo, statsRepo, metrics, logger.Stage(logr, "goal_records"), service.GoalRecordConfig{
		CoreWorkers: cfg.GoalRecords.CoreWorkers,
		MaxWorkers:  cfg.GoalRecords.MaxWorkers,
		QueueSize:   cfg.GoalRecords.QueueSize,
		MaxRetries:  cfg.GoalRecords.MaxRetries,
		Location:    loc,
	})
	// The record pool outlives the signal context so Shutdown can drain it.
	records.Start(context.Background())

	pipeline := service.NewWeeklyPipelineService(aggregator, goals, achievements, records, logr, service.PipelineSchedule{
		StatsCron:         cfg.Pipeline.StatsCron,
		AchievementCron:   cfg.Pipeline.AchievementCron,
		RecordsCron:       cfg.Pipeline.RecordsCron,
		AutoGenerateGoals: cfg.Pipeline.AutoGenerateGoals,
		Location:          loc,
	})

	schedulerDone := make(chan struct{})
	if cfg.Pipeline.Enabled {
		sched := scheduler.New(scheduler.SystemClock{}, loc, logr)
		if err := pipeline.Register(sched); err != nil {
			logr.Sugar().Fatalw("failed to register pipeline triggers", "error", err)
		}
		go func() {
			defer close(schedulerDone)
			_ = sched.Run(ctx)
		}()
	} else {
		close(schedulerDone)
		logr.Sugar().Infow("weekly pipeline triggers disabled")
	}

	validate := handler.NewValidator()
	router := newRouter(cfg, logr, metrics, routeHandlers{
		tokens:   service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		goals:    handler.NewGoalHandler(goals, validate, loc),
		records:  handler.NewRecordHandler(records, validate),
		pipeline: handler.NewPipelineHandler(pipeline, validate, loc),
		system: handler.NewMetricsHandler(metrics,
			handler.ReadinessCheck{Name: "postgres", Check: db.PingContext},
			handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdown(logr, srv, records, schedulerDone, cfg.GoalRecords.DrainTimeout)
}

func shutdown(logr *zap.Logger, srv *http.Server, records *service.GoalRecordService, schedulerDone <-chan struct{}, drain time.Duration) {
	logr.Sugar().Infow("shutting down")

	httpCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		logr.Sugar().Warnw("http shutdown incomplete", "error", err)
	}

	<-schedulerDone

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drain)
	defer cancelDrain()
	if err := records.Shutdown(drainCtx); err != nil {
		logr.Sugar().Warnw("goal record queue not drained", "error", err, "pending", records.Pending())
	}
}
