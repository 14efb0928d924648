package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/mapper"
	"github.com/arcadia-crm/quote-api/internal/pricing"
	"github.com/arcadia-crm/quote-api/internal/repository"
)

// OpportunityCloser closes the opportunity a quote was won against. Closing
// is best effort: a failure surfaces as a warning on the lifecycle result,
// never as a rollback of the won quote.
type OpportunityCloser interface {
	CloseAsWon(ctx context.Context, opportunityID uuid.UUID, actualRevenue decimal.Decimal, closeDate time.Time) error
}

// QuoteLifecycleService drives quotes through their state machine. Every
// transition appends exactly one version snapshot recording the change.
type QuoteLifecycleService struct {
	quoteRepo      *repository.QuoteRepository
	lineRepo       *repository.QuoteLineRepository
	versionService *QuoteVersionService
	closer         OpportunityCloser
	logger         *zap.Logger
}

// NewQuoteLifecycleService wires the lifecycle service. closer may be nil
// when no opportunity backend is configured; winning then skips the close.
func NewQuoteLifecycleService(quoteRepo *repository.QuoteRepository, lineRepo *repository.QuoteLineRepository, versionService *QuoteVersionService, closer OpportunityCloser, logger *zap.Logger) *QuoteLifecycleService {
	return &QuoteLifecycleService{
		quoteRepo:      quoteRepo,
		lineRepo:       lineRepo,
		versionService: versionService,
		closer:         closer,
		logger:         logger,
	}
}

// loadForTransition fetches the quote and verifies the requested transition
// is legal. A won quote rejects every transition with its own sentinel.
func (s *QuoteLifecycleService) loadForTransition(ctx context.Context, quoteID uuid.UUID, target domain.QuoteState) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if quote.State.IsTerminal() {
		return nil, ErrQuoteWon
	}
	if !domain.CanTransition(quote.State, target) {
		return nil, ErrIllegalTransition
	}
	return quote, nil
}

func (s *QuoteLifecycleService) commitTransition(ctx context.Context, quote *domain.Quote, changeType domain.ChangeType, description, reason string, warnings []string) (*domain.LifecycleResultDTO, error) {
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	if _, err := s.versionService.CreateSnapshot(ctx, quote, quote.Lines, changeType, actorFrom(ctx), SnapshotOptions{
		ChangeDescription: description,
		ChangeReason:      reason,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("quote transitioned",
		zap.String("quoteID", quote.ID.String()),
		zap.String("state", string(quote.State)),
		zap.String("subState", string(quote.SubState)))

	dto := mapper.ToQuoteDTO(quote)
	return &domain.LifecycleResultDTO{Quote: &dto, Warnings: warnings}, nil
}

// Activate moves a draft quote into its active, customer-facing state. The
// effective window must be fully set and ordered. An empty or zero-valued
// quote still activates, with a warning on the result.
func (s *QuoteLifecycleService) Activate(ctx context.Context, quoteID uuid.UUID) (*domain.LifecycleResultDTO, error) {
	quote, err := s.loadForTransition(ctx, quoteID, domain.QuoteStateActive)
	if err != nil {
		return nil, err
	}

	if quote.EffectiveFrom == nil {
		return nil, domain.NewValidationError("effectiveFrom", "must be set before activation")
	}
	if quote.EffectiveTo == nil {
		return nil, domain.NewValidationError("effectiveTo", "must be set before activation")
	}
	if !quote.EffectiveTo.After(*quote.EffectiveFrom) {
		return nil, domain.NewValidationError("effectiveTo", "must be after effectiveFrom")
	}

	lines, err := s.lineRepo.ListByQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}

	totals := pricing.AggregateTotals(lines)
	if !totals.TotalAmount.Equal(quote.TotalAmount) {
		return nil, ErrAggregateMismatch
	}

	var warnings []string
	if len(lines) == 0 {
		warnings = append(warnings, "quote has no lines")
	}
	if !quote.TotalAmount.GreaterThan(decimal.Zero) {
		warnings = append(warnings, "quote total amount is not positive")
	}

	quote.State = domain.QuoteStateActive
	quote.SubState = domain.DefaultSubState(domain.QuoteStateActive)

	return s.commitTransition(ctx, quote, domain.ChangeTypeActivated, "Quote activated", "", warnings)
}

// Win marks an active quote as won. When the quote references an
// opportunity, the opportunity is closed as won with the quote's total as
// actual revenue; a failure there is reported as a warning, the win itself
// stands.
func (s *QuoteLifecycleService) Win(ctx context.Context, quoteID uuid.UUID, req domain.WinQuoteRequest) (*domain.LifecycleResultDTO, error) {
	quote, err := s.loadForTransition(ctx, quoteID, domain.QuoteStateWon)
	if err != nil {
		return nil, err
	}

	quote.State = domain.QuoteStateWon
	quote.SubState = domain.SubStateWon
	quote.ClosureReason = req.ClosureReason

	result, err := s.commitTransition(ctx, quote, domain.ChangeTypeWon, "Quote won", req.ClosureReason, nil)
	if err != nil {
		return nil, err
	}

	if quote.OpportunityID != nil && s.closer != nil {
		if err := s.closer.CloseAsWon(ctx, *quote.OpportunityID, quote.TotalAmount, time.Now().UTC()); err != nil {
			s.logger.Warn("failed to close opportunity for won quote",
				zap.String("quoteID", quote.ID.String()),
				zap.String("opportunityID", quote.OpportunityID.String()),
				zap.Error(err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("quote won, but closing opportunity %s failed: %v", quote.OpportunityID, err))
		}
	}

	return result, nil
}

// Lose closes a draft or active quote as lost. A quote that is already
// closed cannot be lost again.
func (s *QuoteLifecycleService) Lose(ctx context.Context, quoteID uuid.UUID, req domain.LoseQuoteRequest) (*domain.LifecycleResultDTO, error) {
	quote, err := s.loadForTransition(ctx, quoteID, domain.QuoteStateClosed)
	if err != nil {
		return nil, err
	}
	if quote.State == domain.QuoteStateClosed {
		return nil, ErrIllegalTransition
	}

	quote.State = domain.QuoteStateClosed
	quote.SubState = domain.SubStateLost
	quote.ClosureReason = req.Reason

	return s.commitTransition(ctx, quote, domain.ChangeTypeLost, "Quote lost", req.Reason, nil)
}

// Cancel closes a quote as canceled. Draft, active and already closed quotes
// can be canceled; a won quote cannot.
func (s *QuoteLifecycleService) Cancel(ctx context.Context, quoteID uuid.UUID, req domain.CancelQuoteRequest) (*domain.LifecycleResultDTO, error) {
	quote, err := s.loadForTransition(ctx, quoteID, domain.QuoteStateClosed)
	if err != nil {
		return nil, err
	}

	quote.State = domain.QuoteStateClosed
	quote.SubState = domain.SubStateCanceled
	quote.ClosureReason = req.Reason

	return s.commitTransition(ctx, quote, domain.ChangeTypeCanceled, "Quote canceled", req.Reason, nil)
}

// Revise reopens an active or closed quote for editing by moving it back to
// draft.
func (s *QuoteLifecycleService) Revise(ctx context.Context, quoteID uuid.UUID, req domain.ReviseQuoteRequest) (*domain.LifecycleResultDTO, error) {
	quote, err := s.loadForTransition(ctx, quoteID, domain.QuoteStateDraft)
	if err != nil {
		return nil, err
	}

	quote.State = domain.QuoteStateDraft
	quote.SubState = domain.SubStateRevised
	quote.ClosureReason = ""

	return s.commitTransition(ctx, quote, domain.ChangeTypeRevised, "Quote revised", req.Reason, nil)
}
