package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arcadia-crm/quote-api/internal/auth"
	"github.com/arcadia-crm/quote-api/internal/database"
	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/repository"
	"github.com/arcadia-crm/quote-api/internal/service"
)

// setupTestDB opens an in-memory sqlite database scoped to the current test.
// The shared cache keeps the database alive across the pooled connections.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type testServices struct {
	db        *gorm.DB
	quotes    *service.QuoteService
	lifecycle *service.QuoteLifecycleService
	versions  *service.QuoteVersionService
}

func setupServices(t *testing.T, closer service.OpportunityCloser) *testServices {
	t.Helper()

	db := setupTestDB(t)
	log := zap.NewNop()

	quoteRepo := repository.NewQuoteRepository(db)
	lineRepo := repository.NewQuoteLineRepository(db)
	versionRepo := repository.NewQuoteVersionRepository(db)

	versionService := service.NewQuoteVersionService(versionRepo, log)
	quoteService := service.NewQuoteService(db, quoteRepo, lineRepo, versionService, log)
	lifecycleService := service.NewQuoteLifecycleService(quoteRepo, lineRepo, versionService, closer, log)

	return &testServices{
		db:        db,
		quotes:    quoteService,
		lifecycle: lifecycleService,
		versions:  versionService,
	}
}

func testContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Test User",
		Email:       "test@arcadia-crm.io",
	})
}

func strPtr(s string) *string    { return &s }
func intPtr(i int) *int          { return &i }
func floatPtr(f float64) *float64 { return &f }
func timePtr(t time.Time) *time.Time { return &t }

// createDraftQuote creates a draft quote with a valid effective window.
func (s *testServices) createDraftQuote(t *testing.T, ctx context.Context, name string) *domain.QuoteDTO {
	t.Helper()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	quote, err := s.quotes.Create(ctx, domain.CreateQuoteRequest{
		Name:          name,
		EffectiveFrom: timePtr(from),
		EffectiveTo:   timePtr(to),
	})
	require.NoError(t, err)
	return quote
}

// addLine appends a line and returns the refreshed quote.
func (s *testServices) addLine(t *testing.T, ctx context.Context, quoteID uuid.UUID, description string, qty int, unitPrice, discount, tax float64) *domain.QuoteDTO {
	t.Helper()

	quote, err := s.quotes.AddLine(ctx, quoteID, domain.CreateQuoteLineRequest{
		Description:    description,
		Quantity:       qty,
		UnitPrice:      unitPrice,
		ManualDiscount: discount,
		Tax:            tax,
	})
	require.NoError(t, err)
	return quote
}

// activateQuote drives a draft quote into the active state.
func (s *testServices) activateQuote(t *testing.T, ctx context.Context, quoteID uuid.UUID) {
	t.Helper()

	_, err := s.lifecycle.Activate(ctx, quoteID)
	require.NoError(t, err)
}
