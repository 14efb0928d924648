package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *QuoteRepository) Update(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Omit("Lines", "Versions", "Opportunity").Save(quote).Error
}

// Delete removes a quote together with its lines and versions.
// Whether the quote may be deleted at all is the service's decision.
func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&domain.QuoteLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", id).Delete(&domain.QuoteVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Quote{}, "id = ?", id).Error
	})
}

func (r *QuoteRepository) List(ctx context.Context, page, pageSize int, customerID *uuid.UUID, state *domain.QuoteState) ([]domain.Quote, int64, error) {
	var quotes []domain.Quote
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quote{})

	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if state != nil {
		query = query.Where("state = ?", *state)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&quotes).Error

	return quotes, total, err
}

// ListActiveExpired returns active quotes whose validity window ended before
// the given instant. Used by the expiry sweep job.
func (r *QuoteRepository) ListActiveExpired(ctx context.Context, now time.Time) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).
		Where("state = ?", domain.QuoteStateActive).
		Where("effective_to IS NOT NULL AND effective_to < ?", now).
		Find(&quotes).Error
	return quotes, err
}

func (r *QuoteRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Quote, error) {
	var quotes []domain.Quote
	searchPattern := "%" + strings.ToLower(searchQuery) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", searchPattern).
		Limit(limit).
		Find(&quotes).Error
	return quotes, err
}
