package jobs

import (
	"bookborrow-funnel/internal/logger"
)

// EvictIdleCarts drops cart synchronizers that have not been used within the
// configured idle timeout.
func (jr *JobRunner) EvictIdleCarts() {
	jr.runWithRecovery("EvictIdleCarts", func() {
		if jr.carts == nil {
			return
		}
		evicted := jr.carts.EvictIdle(jr.config.CartIdleTimeout())
		logger.Info("Evicted idle carts", "count", evicted, "idle_timeout", jr.config.CartIdleTimeout())
	})
}
