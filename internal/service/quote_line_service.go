package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/mapper"
	"github.com/arcadia-crm/quote-api/internal/pricing"
	"github.com/arcadia-crm/quote-api/internal/repository"
)

// loadDraftQuote fetches a quote and rejects the call unless the quote still
// accepts mutations.
func (s *QuoteService) loadDraftQuote(ctx context.Context, quoteID uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if !quote.State.AllowsMutation() {
		return nil, ErrQuoteNotDraft
	}
	return quote, nil
}

// AddLine appends a line to a draft quote, recomputes the quote aggregates
// and appends a version snapshot.
func (s *QuoteService) AddLine(ctx context.Context, quoteID uuid.UUID, req domain.CreateQuoteLineRequest) (*domain.QuoteDTO, error) {
	quote, err := s.loadDraftQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	line := &domain.QuoteLine{
		QuoteID:        quoteID,
		ProductID:      req.ProductID,
		Description:    req.Description,
		Quantity:       req.Quantity,
		UnitPrice:      decimal.NewFromFloat(req.UnitPrice),
		ManualDiscount: decimal.NewFromFloat(req.ManualDiscount),
		Tax:            decimal.NewFromFloat(req.Tax),
	}
	pricing.RecalculateLine(line)

	if line.ManualDiscount.GreaterThan(line.BaseAmount) {
		return nil, domain.NewValidationError("manualDiscount", "cannot exceed the line base amount")
	}

	if err := s.lineRepo.Create(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}

	return s.finishLineMutation(ctx, quote, domain.ChangeTypeProductAdded, fmt.Sprintf("Line %q added", line.Description))
}

// UpdateLine applies the provided fields to a line of a draft quote. The
// version appended reflects what changed: price, discount, or the line in
// general.
func (s *QuoteService) UpdateLine(ctx context.Context, quoteID, lineID uuid.UUID, req domain.UpdateQuoteLineRequest) (*domain.QuoteDTO, error) {
	quote, err := s.loadDraftQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	line, err := s.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	if line.QuoteID != quoteID {
		return nil, ErrLineQuoteMismatch
	}

	priceChanged := false
	discountChanged := false

	if req.ProductID != nil {
		line.ProductID = req.ProductID
	}
	if req.Description != nil {
		line.Description = *req.Description
	}
	if req.Quantity != nil {
		line.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		next := decimal.NewFromFloat(*req.UnitPrice)
		if !next.Equal(line.UnitPrice) {
			priceChanged = true
		}
		line.UnitPrice = next
	}
	if req.ManualDiscount != nil {
		next := decimal.NewFromFloat(*req.ManualDiscount)
		if !next.Equal(line.ManualDiscount) {
			discountChanged = true
		}
		line.ManualDiscount = next
	}
	if req.Tax != nil {
		line.Tax = decimal.NewFromFloat(*req.Tax)
	}

	pricing.RecalculateLine(line)

	if line.ManualDiscount.GreaterThan(line.BaseAmount) {
		return nil, domain.NewValidationError("manualDiscount", "cannot exceed the line base amount")
	}

	if err := s.lineRepo.Update(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to update line: %w", err)
	}

	changeType := domain.ChangeTypeProductUpdated
	description := fmt.Sprintf("Line %q updated", line.Description)
	switch {
	case priceChanged:
		changeType = domain.ChangeTypePriceChanged
		description = fmt.Sprintf("Price changed on line %q", line.Description)
	case discountChanged:
		changeType = domain.ChangeTypeDiscountApplied
		description = fmt.Sprintf("Discount changed on line %q", line.Description)
	}

	return s.finishLineMutation(ctx, quote, changeType, description)
}

// DeleteLine removes a single line from a draft quote.
func (s *QuoteService) DeleteLine(ctx context.Context, quoteID, lineID uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.loadDraftQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	line, err := s.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	if line.QuoteID != quoteID {
		return nil, ErrLineQuoteMismatch
	}

	if err := s.lineRepo.Delete(ctx, lineID); err != nil {
		return nil, fmt.Errorf("failed to delete line: %w", err)
	}

	return s.finishLineMutation(ctx, quote, domain.ChangeTypeProductRemoved, fmt.Sprintf("Line %q removed", line.Description))
}

// BulkDeleteLines removes a set of lines from a draft quote in one
// all-or-nothing operation with a single version snapshot.
func (s *QuoteService) BulkDeleteLines(ctx context.Context, quoteID uuid.UUID, req domain.BulkDeleteLinesRequest) (*domain.QuoteDTO, error) {
	quote, err := s.loadDraftQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolveBatchLines(ctx, quoteID, req.LineIDs); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lineRepo := repository.NewQuoteLineRepository(tx)
		for _, lineID := range req.LineIDs {
			if err := lineRepo.Delete(ctx, lineID); err != nil {
				return fmt.Errorf("failed to delete line %s: %w", lineID, err)
			}
		}
		remaining, err := lineRepo.ListByQuote(ctx, quoteID)
		if err != nil {
			return fmt.Errorf("failed to list remaining lines: %w", err)
		}
		applyTotals(quote, remaining)
		return repository.NewQuoteRepository(tx).Update(ctx, quote)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk deleted quote lines",
		zap.String("quoteID", quoteID.String()),
		zap.Int("count", len(req.LineIDs)))

	return s.finishBatchMutation(ctx, quoteID, domain.ChangeTypeProductRemoved, fmt.Sprintf("Removed %d lines", len(req.LineIDs)))
}

// BulkApplyDiscount applies a uniform discount to a set of lines of a draft
// quote. In percentage mode each line gets value percent of its base amount;
// in amount mode each line gets the value as an absolute discount. The
// resulting discount is always clamped to the line's base amount. The whole
// batch is validated up front and applied all-or-nothing with a single
// version snapshot.
func (s *QuoteService) BulkApplyDiscount(ctx context.Context, quoteID uuid.UUID, req domain.BulkDiscountRequest) (*domain.QuoteDTO, error) {
	quote, err := s.loadDraftQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if !req.Mode.IsValid() {
		return nil, domain.NewValidationError("mode", "must be one of percentage, amount")
	}
	value := decimal.NewFromFloat(req.Value)
	if !value.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError("value", "must be greater than zero")
	}
	if req.Mode == domain.DiscountModePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, domain.NewValidationError("value", "percentage cannot exceed 100")
	}

	lines, err := s.resolveBatchLines(ctx, quoteID, req.LineIDs)
	if err != nil {
		return nil, err
	}

	for i := range lines {
		var discount decimal.Decimal
		switch req.Mode {
		case domain.DiscountModePercentage:
			discount = pricing.DiscountAmountFromPercentage(lines[i].BaseAmount, value)
		case domain.DiscountModeAmount:
			discount = value
		}
		if discount.GreaterThan(lines[i].BaseAmount) {
			discount = lines[i].BaseAmount
		}
		lines[i].ManualDiscount = discount
		pricing.RecalculateLine(&lines[i])
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lineRepo := repository.NewQuoteLineRepository(tx)
		for i := range lines {
			if err := lineRepo.Update(ctx, &lines[i]); err != nil {
				return fmt.Errorf("failed to update line %s: %w", lines[i].ID, err)
			}
		}
		all, err := lineRepo.ListByQuote(ctx, quoteID)
		if err != nil {
			return fmt.Errorf("failed to list lines: %w", err)
		}
		applyTotals(quote, all)
		return repository.NewQuoteRepository(tx).Update(ctx, quote)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk applied discount",
		zap.String("quoteID", quoteID.String()),
		zap.String("mode", string(req.Mode)),
		zap.Int("count", len(req.LineIDs)))

	return s.finishBatchMutation(ctx, quoteID, domain.ChangeTypeDiscountApplied, fmt.Sprintf("Applied %s discount to %d lines", req.Mode, len(req.LineIDs)))
}

// resolveBatchLines loads the requested lines and rejects the batch when any
// id is missing or belongs to another quote.
func (s *QuoteService) resolveBatchLines(ctx context.Context, quoteID uuid.UUID, lineIDs []uuid.UUID) ([]domain.QuoteLine, error) {
	lines, err := s.lineRepo.GetByIDs(ctx, lineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}

	byID := make(map[uuid.UUID]*domain.QuoteLine, len(lines))
	for i := range lines {
		byID[lines[i].ID] = &lines[i]
	}
	resolved := make([]domain.QuoteLine, 0, len(lineIDs))
	for _, lineID := range lineIDs {
		line, exists := byID[lineID]
		if !exists {
			return nil, ErrLineNotFound
		}
		if line.QuoteID != quoteID {
			return nil, ErrLineQuoteMismatch
		}
		resolved = append(resolved, *line)
	}
	return resolved, nil
}

// finishLineMutation recomputes the quote aggregates after a single-line
// change, persists them and appends the version snapshot.
func (s *QuoteService) finishLineMutation(ctx context.Context, quote *domain.Quote, changeType domain.ChangeType, description string) (*domain.QuoteDTO, error) {
	lines, err := s.lineRepo.ListByQuote(ctx, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}

	applyTotals(quote, lines)
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote totals: %w", err)
	}

	if _, err := s.versionService.CreateSnapshot(ctx, quote, lines, changeType, actorFrom(ctx), SnapshotOptions{
		ChangeDescription: description,
	}); err != nil {
		return nil, err
	}

	quote.Lines = lines
	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}

// finishBatchMutation reloads the quote after a committed batch and appends
// the single snapshot covering the whole batch.
func (s *QuoteService) finishBatchMutation(ctx context.Context, quoteID uuid.UUID, changeType domain.ChangeType, description string) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quote: %w", err)
	}

	if _, err := s.versionService.CreateSnapshot(ctx, quote, quote.Lines, changeType, actorFrom(ctx), SnapshotOptions{
		ChangeDescription: description,
	}); err != nil {
		return nil, err
	}

	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}
