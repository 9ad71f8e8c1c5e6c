package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bookborrow-funnel/internal/config"
	"bookborrow-funnel/internal/jobs"
	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/scheduler"
	"bookborrow-funnel/internal/storage"
)

// The cronjob runner sweeps shared hint stores (redis, postgres) outside the
// server process.
func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'sweep-expired-hints', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting cronjob runner...", "log_level", cfg.Log.Level)

	if cfg.Hints.Type == "memory" {
		log.Fatalf("Hint store type 'memory' lives inside the server process; nothing to sweep here")
	}

	hintStore, closeStore, err := storage.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open hint store", "error", err, "type", cfg.Hints.Type)
		log.Fatalf("Failed to open hint store: %v", err)
	}
	defer closeStore()
	logger.Info("Hint store connection established", "type", cfg.Hints.Type)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(hintStore, nil, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			closeStore()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "sweep-expired-hints":
		jobRunner.SweepExpiredHints()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - sweep-expired-hints\n")
		fmt.Printf("  - all\n")
		return false
	}
	return true
}
