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

	"github.com/arcadia-crm/quote-api/internal/auth"
	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/mapper"
	"github.com/arcadia-crm/quote-api/internal/pricing"
	"github.com/arcadia-crm/quote-api/internal/repository"
)

// QuoteService implements quote CRUD, line management and the derived
// aggregate totals. Every successful mutation appends exactly one version
// snapshot. Mutations are accepted only while the quote is in draft.
type QuoteService struct {
	db             *gorm.DB
	quoteRepo      *repository.QuoteRepository
	lineRepo       *repository.QuoteLineRepository
	versionService *QuoteVersionService
	logger         *zap.Logger
}

func NewQuoteService(db *gorm.DB, quoteRepo *repository.QuoteRepository, lineRepo *repository.QuoteLineRepository, versionService *QuoteVersionService, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		db:             db,
		quoteRepo:      quoteRepo,
		lineRepo:       lineRepo,
		versionService: versionService,
		logger:         logger,
	}
}

// actorFrom resolves the acting user for audit fields. Background jobs and
// unauthenticated callers are recorded as system.
func actorFrom(ctx context.Context) string {
	if user, ok := auth.FromContext(ctx); ok {
		return user.UserID.String()
	}
	return "system"
}

func buildCustomerRef(kind domain.CustomerKind, id *uuid.UUID) (domain.CustomerRef, error) {
	if id == nil && kind == "" {
		return domain.CustomerRef{}, nil
	}
	if id == nil || kind == "" {
		return domain.CustomerRef{}, domain.NewValidationError("customerId", "customerKind and customerId must be provided together")
	}
	if !kind.IsValid() {
		return domain.CustomerRef{}, domain.NewValidationError("customerKind", "must be one of account, contact")
	}
	return domain.CustomerRef{Kind: kind, ID: id}, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func validateEffectiveWindow(from, to *time.Time) error {
	if from != nil && to != nil && !to.After(*from) {
		return domain.NewValidationError("effectiveTo", "must be after effectiveFrom")
	}
	return nil
}

// Create persists a new quote in draft state with zeroed aggregates and
// appends the initial version snapshot.
func (s *QuoteService) Create(ctx context.Context, req domain.CreateQuoteRequest) (*domain.QuoteDTO, error) {
	customer, err := buildCustomerRef(req.CustomerKind, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := validateEffectiveWindow(req.EffectiveFrom, req.EffectiveTo); err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		Name:            req.Name,
		Description:     req.Description,
		Customer:        customer,
		OpportunityID:   req.OpportunityID,
		State:           domain.QuoteStateDraft,
		SubState:        domain.DefaultSubState(domain.QuoteStateDraft),
		EffectiveFrom:   req.EffectiveFrom,
		EffectiveTo:     req.EffectiveTo,
		TotalLineAmount: decimal.Zero,
		TotalDiscount:   decimal.Zero,
		TotalTax:        decimal.Zero,
		TotalAmount:     decimal.Zero,
		OwnerID:         actorFrom(ctx),
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	if _, err := s.versionService.CreateSnapshot(ctx, quote, nil, domain.ChangeTypeCreated, actorFrom(ctx), SnapshotOptions{
		ChangeDescription: "Quote created",
	}); err != nil {
		return nil, err
	}

	s.logger.Info("quote created",
		zap.String("quoteID", quote.ID.String()),
		zap.String("name", quote.Name))

	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}

func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}

func (s *QuoteService) List(ctx context.Context, page, pageSize int, customerID *uuid.UUID, state *domain.QuoteState) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	quotes, total, err := s.quoteRepo.List(ctx, page, pageSize, customerID, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	dtos := make([]domain.QuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = mapper.ToQuoteDTO(&quotes[i])
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *QuoteService) Search(ctx context.Context, query string, limit int) ([]domain.QuoteDTO, error) {
	if limit < 1 || limit > 50 {
		limit = 20
	}
	quotes, err := s.quoteRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search quotes: %w", err)
	}
	dtos := make([]domain.QuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = mapper.ToQuoteDTO(&quotes[i])
	}
	return dtos, nil
}

// Update applies the provided fields to a draft quote and appends a version
// recording which fields changed.
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateQuoteRequest) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	if !quote.State.AllowsMutation() {
		return nil, ErrQuoteNotDraft
	}

	var changedFields []string
	if req.Name != nil && *req.Name != quote.Name {
		quote.Name = *req.Name
		changedFields = append(changedFields, "name")
	}
	if req.Description != nil && *req.Description != quote.Description {
		quote.Description = *req.Description
		changedFields = append(changedFields, "description")
	}
	if req.CustomerID != nil || req.CustomerKind != "" {
		customer, err := buildCustomerRef(req.CustomerKind, req.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer.Kind != quote.Customer.Kind || !uuidPtrEqual(customer.ID, quote.Customer.ID) {
			quote.Customer = customer
			changedFields = append(changedFields, "customerId")
		}
	}
	switch {
	case req.ClearOpportunityID:
		if quote.OpportunityID != nil {
			quote.OpportunityID = nil
			changedFields = append(changedFields, "opportunityId")
		}
	case req.OpportunityID != nil:
		quote.OpportunityID = req.OpportunityID
		changedFields = append(changedFields, "opportunityId")
	}
	if req.ClearEffectiveWindow {
		if quote.EffectiveFrom != nil {
			quote.EffectiveFrom = nil
			changedFields = append(changedFields, "effectiveFrom")
		}
		if quote.EffectiveTo != nil {
			quote.EffectiveTo = nil
			changedFields = append(changedFields, "effectiveTo")
		}
	} else {
		if req.EffectiveFrom != nil {
			quote.EffectiveFrom = req.EffectiveFrom
			changedFields = append(changedFields, "effectiveFrom")
		}
		if req.EffectiveTo != nil {
			quote.EffectiveTo = req.EffectiveTo
			changedFields = append(changedFields, "effectiveTo")
		}
	}

	if err := validateEffectiveWindow(quote.EffectiveFrom, quote.EffectiveTo); err != nil {
		return nil, err
	}

	if len(changedFields) == 0 {
		dto := mapper.ToQuoteDTO(quote)
		return &dto, nil
	}

	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	if _, err := s.versionService.CreateSnapshot(ctx, quote, quote.Lines, domain.ChangeTypeUpdated, actorFrom(ctx), SnapshotOptions{
		ChangeDescription: "Quote updated",
		ChangedFields:     changedFields,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("quote updated",
		zap.String("quoteID", quote.ID.String()),
		zap.Strings("changedFields", changedFields))

	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}

// Delete removes a draft quote together with its lines and version history.
func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuoteNotFound
		}
		return fmt.Errorf("failed to get quote: %w", err)
	}

	if !quote.State.AllowsMutation() {
		return ErrQuoteNotDraft
	}

	if err := s.quoteRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	s.logger.Info("quote deleted", zap.String("quoteID", id.String()))
	return nil
}

// GetTotals recomputes the aggregate figures from the quote's current lines.
func (s *QuoteService) GetTotals(ctx context.Context, quoteID uuid.UUID) (*domain.QuoteTotalsDTO, error) {
	if _, err := s.quoteRepo.GetByID(ctx, quoteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	lines, err := s.lineRepo.ListByQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}

	totals := pricing.AggregateTotals(lines)
	dto := mapper.ToTotalsDTO(totals, lines)
	return &dto, nil
}

// applyTotals writes the aggregate of the given lines onto the quote.
func applyTotals(quote *domain.Quote, lines []domain.QuoteLine) {
	totals := pricing.AggregateTotals(lines)
	quote.TotalLineAmount = totals.TotalLineAmount
	quote.TotalDiscount = totals.TotalDiscount
	quote.TotalTax = totals.TotalTax
	quote.TotalAmount = totals.TotalAmount
}
