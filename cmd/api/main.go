package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantserve/valuation-engine/config"
	"github.com/quantserve/valuation-engine/internal/cache"
	"github.com/quantserve/valuation-engine/internal/engine"
	"github.com/quantserve/valuation-engine/internal/kafka"
	"github.com/quantserve/valuation-engine/internal/store"
	"github.com/quantserve/valuation-engine/internal/stream"
	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/api"
	"github.com/quantserve/valuation-engine/pkg/metrics"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("api.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("api.main")
	log.Infof("Starting %s API service", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()
	eng := engine.New(engine.Config{
		Workers:         cfg.Engine.Workers,
		DefaultNumPaths: cfg.Engine.DefaultNumPaths,
		DefaultSteps:    cfg.Engine.DefaultSteps,
	})

	results, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to create result cache: %v", err)
	}

	taskStore := store.NewTaskStore()
	hub := stream.NewHub(recorder, cfg.Stream)
	go hub.Run(ctx)

	taskProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ValuationTasks)
	dispatcher := tasks.NewDispatcher(taskProducer, taskStore, recorder)

	resultConsumer := tasks.NewResultConsumer(
		kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ValuationResults),
		taskStore,
		hub,
	)
	go func() {
		if err := resultConsumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("Result consumer error: %v", err)
			recorder.RecordKafkaError(cfg.Kafka.Topics.ValuationResults, "consume")
		}
	}()

	apiServer := api.NewServer(cfg.API, cfg.Metrics, eng, dispatcher, taskStore, hub, results, recorder)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Errorf("API server error: %v", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infof("Received signal %v, initiating shutdown", sig)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Errorf("API server shutdown error: %v", err)
	}
	cancel()

	if err := taskProducer.Close(); err != nil {
		log.Errorf("Task producer shutdown error: %v", err)
	}
	if err := results.Close(); err != nil {
		log.Errorf("Result cache shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
}
