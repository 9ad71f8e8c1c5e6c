package jobs

import (
	"context"

	"bookborrow-funnel/internal/logger"
)

// SweepExpiredHints removes checkout hints that expired without the
// payment-return view ever taking them.
func (jr *JobRunner) SweepExpiredHints() {
	jr.runWithRecovery("SweepExpiredHints", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
		defer cancel()

		removed, err := jr.hints.Sweep(ctx)
		if err != nil {
			logger.Error("Failed to sweep expired checkout hints", "error", err)
			return
		}
		logger.Info("Swept expired checkout hints", "count", removed)
	})
}
