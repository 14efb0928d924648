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
	"github.com/arcadia-crm/quote-api/internal/repository"
)

// OpportunityService manages the opportunities quotes are won against. It
// satisfies OpportunityCloser for the lifecycle service.
type OpportunityService struct {
	opportunityRepo *repository.OpportunityRepository
	logger          *zap.Logger
}

func NewOpportunityService(opportunityRepo *repository.OpportunityRepository, logger *zap.Logger) *OpportunityService {
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		logger:          logger,
	}
}

func (s *OpportunityService) Create(ctx context.Context, req domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error) {
	customer, err := buildCustomerRef(req.CustomerKind, req.CustomerID)
	if err != nil {
		return nil, err
	}

	opportunity := &domain.Opportunity{
		Name:           req.Name,
		Customer:       customer,
		Status:         domain.OpportunityStatusOpen,
		EstimatedValue: decimal.NewFromFloat(req.EstimatedValue),
		ActualRevenue:  decimal.Zero,
		OwnerID:        actorFrom(ctx),
		Description:    req.Description,
	}

	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	s.logger.Info("opportunity created",
		zap.String("opportunityID", opportunity.ID.String()),
		zap.String("name", opportunity.Name))

	dto := mapper.ToOpportunityDTO(opportunity)
	return &dto, nil
}

func (s *OpportunityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OpportunityDTO, error) {
	opportunity, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	dto := mapper.ToOpportunityDTO(opportunity)
	return &dto, nil
}

func (s *OpportunityService) List(ctx context.Context, page, pageSize int, status *domain.OpportunityStatus) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	opportunities, total, err := s.opportunityRepo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	dtos := make([]domain.OpportunityDTO, len(opportunities))
	for i := range opportunities {
		dtos[i] = mapper.ToOpportunityDTO(&opportunities[i])
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

// CloseAsWon marks the opportunity as won and records the realized revenue
// and close date. Closing an already won opportunity is a no-op.
func (s *OpportunityService) CloseAsWon(ctx context.Context, opportunityID uuid.UUID, actualRevenue decimal.Decimal, closeDate time.Time) error {
	opportunity, err := s.opportunityRepo.GetByID(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOpportunityNotFound
		}
		return fmt.Errorf("failed to get opportunity: %w", err)
	}

	if opportunity.Status == domain.OpportunityStatusWon {
		return nil
	}

	opportunity.Status = domain.OpportunityStatusWon
	opportunity.ActualRevenue = actualRevenue
	opportunity.ActualCloseDate = &closeDate

	if err := s.opportunityRepo.Update(ctx, opportunity); err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}

	s.logger.Info("opportunity closed as won",
		zap.String("opportunityID", opportunityID.String()),
		zap.String("actualRevenue", actualRevenue.StringFixed(2)))

	return nil
}
