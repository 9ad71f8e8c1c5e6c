package jobs

import (
	"time"

	"bookborrow-funnel/internal/config"
	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/storage"
)

// CartEvictor releases in-memory carts nobody has used for a while
type CartEvictor interface {
	EvictIdle(maxIdle time.Duration) int
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	hints   storage.HintStore
	carts   CartEvictor
	config  *config.Config
	timeout time.Duration
}

// NewJobRunner creates a new job runner with all dependencies. carts is nil
// outside the server process, where no carts are held.
func NewJobRunner(hints storage.HintStore, carts CartEvictor, cfg *config.Config) *JobRunner {
	return &JobRunner{
		hints:   hints,
		carts:   carts,
		config:  cfg,
		timeout: time.Minute,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// EvictsCarts reports whether the runner holds a cart registry to evict from
func (jr *JobRunner) EvictsCarts() bool {
	return jr.carts != nil
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SweepExpiredHints()
	if jr.EvictsCarts() {
		jr.EvictIdleCarts()
	}
}
