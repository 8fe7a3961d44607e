package ingest

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/forecast/internal/domain"
	"github.com/vadiminshakov/forecast/pkg/retrier"
)

// RetryingSource retries failed reads of another source. Exports are often replaced
// by a sync job while the board reads them, so a failed read is tried again after a
// short backoff. A missing change set is never retried.
type RetryingSource struct {
	source  Source
	retrier *retrier.Retrier
}

// NewRetryingSource wraps source. opts override the default backoff.
func NewRetryingSource(source Source, logger *zap.Logger, opts ...retrier.Option) *RetryingSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := logger.With(zap.String("component", "retrying_source"))

	base := []retrier.Option{
		retrier.WithRetryIf(retryable),
		retrier.OnRetry(func(attempt int, wait time.Duration, err error) {
			l.Warn("read failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	}
	return &RetryingSource{
		source:  source,
		retrier: retrier.New(append(base, opts...)...),
	}
}

// ClosedWon loads the closed-won export.
func (s *RetryingSource) ClosedWon(ctx context.Context) ([]domain.ClosedWonRecord, error) {
	return retrier.DoWithData(ctx, s.retrier, s.source.ClosedWon)
}

// Pipeline loads the open-pipeline export.
func (s *RetryingSource) Pipeline(ctx context.Context) ([]domain.DealRecord, error) {
	return retrier.DoWithData(ctx, s.retrier, s.source.Pipeline)
}

// Changes loads the change set measured against comparison.
func (s *RetryingSource) Changes(ctx context.Context, comparison domain.Comparison) ([]domain.ChangeRecord, error) {
	return retrier.DoWithData(ctx, s.retrier, func(ctx context.Context) ([]domain.ChangeRecord, error) {
		return s.source.Changes(ctx, comparison)
	})
}

func retryable(err error) bool {
	return !errors.Is(err, ErrNoChangeSet) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
