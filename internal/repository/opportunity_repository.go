package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func (r *OpportunityRepository) Create(ctx context.Context, opportunity *domain.Opportunity) error {
	return r.db.WithContext(ctx).Create(opportunity).Error
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var opportunity domain.Opportunity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&opportunity).Error
	if err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, opportunity *domain.Opportunity) error {
	return r.db.WithContext(ctx).Save(opportunity).Error
}

func (r *OpportunityRepository) List(ctx context.Context, page, pageSize int, status *domain.OpportunityStatus) ([]domain.Opportunity, int64, error) {
	var opportunities []domain.Opportunity
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Opportunity{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&opportunities).Error

	return opportunities, total, err
}
