package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

type QuoteLineRepository struct {
	db *gorm.DB
}

func NewQuoteLineRepository(db *gorm.DB) *QuoteLineRepository {
	return &QuoteLineRepository{db: db}
}

func (r *QuoteLineRepository) Create(ctx context.Context, line *domain.QuoteLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *QuoteLineRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteLine, error) {
	var line domain.QuoteLine
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *QuoteLineRepository) Update(ctx context.Context, line *domain.QuoteLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *QuoteLineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.QuoteLine{}, "id = ?", id).Error
}

func (r *QuoteLineRepository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteLine, error) {
	var lines []domain.QuoteLine
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// GetByIDs loads the given lines in one query. The caller decides what a
// missing id means.
func (r *QuoteLineRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.QuoteLine, error) {
	var lines []domain.QuoteLine
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&lines).Error
	return lines, err
}

func (r *QuoteLineRepository) CountByQuote(ctx context.Context, quoteID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QuoteLine{}).
		Where("quote_id = ?", quoteID).
		Count(&count).Error
	return int(count), err
}
