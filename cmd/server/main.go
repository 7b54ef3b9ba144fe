package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/repository/mongodb"
	"github.com/nutrilog/nutrilog/internal/scheduler"
	"github.com/nutrilog/nutrilog/internal/server/handlers"
	"github.com/nutrilog/nutrilog/internal/server/middleware"
	"github.com/nutrilog/nutrilog/internal/server/router"
	"github.com/nutrilog/nutrilog/internal/service/extraction"
	"github.com/nutrilog/nutrilog/internal/service/nutrition"
	"github.com/nutrilog/nutrilog/internal/service/pipeline"
	"github.com/nutrilog/nutrilog/internal/service/workout"
	"github.com/nutrilog/nutrilog/pkg/clients/openai"
	"github.com/nutrilog/nutrilog/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	// The reference dataset and the log store are soft dependencies: the
	// pipeline degrades when they are absent instead of refusing to start.
	var repo *mongodb.Repository
	var dataset mongodb.NutritionDataset
	var store mongodb.LogStore
	if cfg.MongoDB.URI != "" {
		repo, err = mongodb.NewRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Warn("nutrition reference dataset unavailable, using model estimates", zap.Error(err))
		} else {
			dataset = repo
			store = repo
			defer func() {
				if err := repo.Close(context.Background()); err != nil {
					baseLogger.Error("failed to close mongodb connection", zap.Error(err))
				}
			}()
		}
	} else {
		baseLogger.Warn("mongodb uri missing, nutrition dataset and persistence disabled")
	}

	var aiClient openai.Client
	if cfg.AI.OpenAIKey != "" {
		aiClient = openai.NewClient(cfg.AI.OpenAIKey, openai.WithModel(cfg.AI.Model))
		baseLogger.Info("openai client enabled", zap.String("model", cfg.AI.Model))
	} else {
		baseLogger.Warn("openai api key missing, extraction will degrade to empty entries")
	}

	extractor := extraction.NewService(aiClient, baseLogger.Named("svc.extraction"))
	resolver := nutrition.NewResolver(dataset, aiClient, baseLogger.Named("svc.nutrition"))
	estimator := workout.NewEstimator(aiClient, baseLogger.Named("svc.workout"))
	pipelineSvc := pipeline.NewService(extractor, resolver, estimator, baseLogger.Named("svc.pipeline"))

	var verifier middleware.TokenVerifier
	if cfg.Auth.Audience != "" {
		v, err := middleware.NewGoogleVerifier(context.Background(), cfg.Auth.Audience)
		if err != nil {
			baseLogger.Fatal("failed to init token verifier", zap.Error(err))
		}
		verifier = v
		baseLogger.Info("token verification enabled")
	} else {
		baseLogger.Warn("auth audience missing, api routes are unauthenticated")
	}

	logHandler := handlers.NewLogHandler(pipelineSvc, store, baseLogger.Named("handlers.logs"))
	engine := router.New(logHandler, verifier, baseLogger.Named("router"))

	if store != nil {
		sched := scheduler.NewScheduler(cfg.Summary, store, baseLogger.Named("scheduler"))
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
