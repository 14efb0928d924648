package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

// QuoteVersionRepository stores the append-only version history of quotes.
// Versions are never updated; besides Create the only mutation is the cascade
// performed by QuoteRepository.Delete.
type QuoteVersionRepository struct {
	db *gorm.DB
}

func NewQuoteVersionRepository(db *gorm.DB) *QuoteVersionRepository {
	return &QuoteVersionRepository{db: db}
}

// Create appends a version snapshot
func (r *QuoteVersionRepository) Create(ctx context.Context, version *domain.QuoteVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *QuoteVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteVersion, error) {
	var version domain.QuoteVersion
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ListByQuote returns the full history of a quote ordered by version number.
func (r *QuoteVersionRepository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteVersion, error) {
	var versions []domain.QuoteVersion
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("version_number ASC").
		Find(&versions).Error
	return versions, err
}

// GetLatestByQuote returns the most recent version for a quote
func (r *QuoteVersionRepository) GetLatestByQuote(ctx context.Context, quoteID uuid.UUID) (*domain.QuoteVersion, error) {
	var version domain.QuoteVersion
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("version_number DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// CountByQuote returns how many versions exist for a quote. The next version
// number is always this count plus one.
func (r *QuoteVersionRepository) CountByQuote(ctx context.Context, quoteID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QuoteVersion{}).
		Where("quote_id = ?", quoteID).
		Count(&count).Error
	return int(count), err
}
