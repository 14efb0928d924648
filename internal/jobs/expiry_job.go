package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

// ExpiryJobName is the name of the quote expiry job
const ExpiryJobName = "quote_expiry"

// DefaultExpiryTimeout bounds a single expiry sweep.
const DefaultExpiryTimeout = 5 * time.Minute

// ExpiredQuoteLister finds active quotes whose effective window has passed.
type ExpiredQuoteLister interface {
	ListActiveExpired(ctx context.Context, now time.Time) ([]domain.Quote, error)
}

// QuoteCanceler cancels a quote through the regular lifecycle path, so the
// cancellation is versioned like any user-driven transition.
type QuoteCanceler interface {
	Cancel(ctx context.Context, quoteID uuid.UUID, req domain.CancelQuoteRequest) (*domain.LifecycleResultDTO, error)
}

// ExpiryJob cancels active quotes that stayed open past their effectiveTo
// date.
type ExpiryJob struct {
	lister   ExpiredQuoteLister
	canceler QuoteCanceler
	logger   *zap.Logger
	timeout  time.Duration
}

// NewExpiryJob creates a new quote expiry job.
func NewExpiryJob(lister ExpiredQuoteLister, canceler QuoteCanceler, logger *zap.Logger, timeout time.Duration) *ExpiryJob {
	if timeout <= 0 {
		timeout = DefaultExpiryTimeout
	}
	return &ExpiryJob{
		lister:   lister,
		canceler: canceler,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run executes one expiry sweep. Failures on individual quotes are logged
// and do not stop the rest of the sweep.
func (j *ExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	now := time.Now().UTC()
	expired, err := j.lister.ListActiveExpired(ctx, now)
	if err != nil {
		j.logger.Error("failed to list expired quotes", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	canceled := 0
	for _, quote := range expired {
		_, err := j.canceler.Cancel(ctx, quote.ID, domain.CancelQuoteRequest{
			Reason: "Expired: effective window passed without closure",
		})
		if err != nil {
			j.logger.Warn("failed to cancel expired quote",
				zap.String("quoteID", quote.ID.String()),
				zap.Error(err))
			continue
		}
		canceled++
	}

	j.logger.Info("quote expiry sweep finished",
		zap.Int("expired", len(expired)),
		zap.Int("canceled", canceled))
}
