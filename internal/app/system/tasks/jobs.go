package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// eventPruner is satisfied by *audit.Store.
type eventPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetentionJob deletes audit events older than maxAge once a day.
func AuditRetentionJob(events eventPruner, maxAge time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 24 * time.Hour,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-maxAge)
			n, err := events.DeleteBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned audit events", zap.Int64("deleted", n), zap.Time("before", cutoff))
			}
			return nil
		},
	}
}
