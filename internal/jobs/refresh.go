package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/copilot-ledger/internal/store"
	"github.com/rs/zerolog"
)

// NewRefreshHandler returns a handler that invalidates db and decodes it again.
// A missing database is not retried.
func NewRefreshHandler(db *store.Database, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job *RefreshJob) error {
		log := log.With().Str("job_id", job.JobID).Str("reason", string(job.Reason)).Logger()
		log.Info().Int("attempt", job.RetryCount+1).Msg("Refreshing decoded cache")

		db.Invalidate()
		nTx, nAcc, err := db.Warm(ctx)
		if err != nil {
			if errors.Is(err, store.ErrDatabaseUnavailable) {
				return Permanent(fmt.Errorf("refresh: %w", err))
			}
			return fmt.Errorf("refresh: %w", err)
		}
		job.Transactions, job.Accounts = nTx, nAcc

		log.Info().Int("transactions", nTx).Int("accounts", nAcc).Msg("Refresh completed")
		return nil
	}
}
