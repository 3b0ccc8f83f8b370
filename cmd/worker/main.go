package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantserve/valuation-engine/config"
	"github.com/quantserve/valuation-engine/internal/engine"
	"github.com/quantserve/valuation-engine/internal/kafka"
	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/metrics"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("worker.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("worker.main")
	log.Infof("Starting %s task worker", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()
	eng := engine.New(engine.Config{
		Workers:         cfg.Engine.Workers,
		DefaultNumPaths: cfg.Engine.DefaultNumPaths,
		DefaultSteps:    cfg.Engine.DefaultSteps,
	})

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ValuationTasks)
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ValuationResults)
	worker := tasks.NewWorker(eng, consumer, producer, recorder)

	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("Worker error: %v", err)
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
	cancel()

	if err := consumer.Close(); err != nil {
		log.Errorf("Consumer shutdown error: %v", err)
	}
	if err := producer.Close(); err != nil {
		log.Errorf("Producer shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
}
