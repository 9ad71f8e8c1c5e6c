package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookborrow-funnel/internal/config"
	"bookborrow-funnel/internal/jobs"
	"bookborrow-funnel/internal/scheduler"
	"bookborrow-funnel/internal/storage"
)

type noopEvictor struct{}

func (noopEvictor) EvictIdle(time.Duration) int { return 0 }

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{SweepExpiredHints: "0 */5 * * * *"}}
	s, err := scheduler.NewScheduler(jobs.NewJobRunner(storage.NewMemoryStore(), nil, cfg))
	require.NoError(t, err)
	assert.Equal(t, 1, s.EntryCount())

	s.Start()
	s.Stop()
}

func TestNewScheduler_WithCartEviction(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		SweepExpiredHints: "0 */5 * * * *",
		EvictIdleCarts:    "30 * * * * *",
	}}
	s, err := scheduler.NewScheduler(jobs.NewJobRunner(storage.NewMemoryStore(), noopEvictor{}, cfg))
	require.NoError(t, err)
	assert.Equal(t, 2, s.EntryCount())
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{SweepExpiredHints: "every now and then"}}
	_, err := scheduler.NewScheduler(jobs.NewJobRunner(storage.NewMemoryStore(), nil, cfg))
	assert.Error(t, err)

	cfg = &config.Config{Scheduler: config.SchedulerConfig{
		SweepExpiredHints: "0 */5 * * * *",
		EvictIdleCarts:    "whenever",
	}}
	_, err = scheduler.NewScheduler(jobs.NewJobRunner(storage.NewMemoryStore(), noopEvictor{}, cfg))
	assert.Error(t, err)
}
