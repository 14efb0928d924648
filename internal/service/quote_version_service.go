package service

import (
	"context"
	"encoding/json"
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

// quoteTrackedFields is the fixed set of quote scalar fields a comparison
// inspects, in emission order.
var quoteTrackedFields = []string{
	"name",
	"description",
	"customerId",
	"effectiveFrom",
	"effectiveTo",
	"totalAmount",
	"state",
	"subState",
}

// lineTrackedFields is the fixed set of line fields a comparison inspects.
var lineTrackedFields = []string{
	"quantity",
	"unitPrice",
	"discount",
	"tax",
	"extendedAmount",
}

// QuoteVersionService owns the snapshot mechanics of the version history:
// appending immutable, monotonically numbered snapshots and computing
// structured diffs between any two of them. The decision of when to version
// belongs to the services driving mutations.
type QuoteVersionService struct {
	versionRepo *repository.QuoteVersionRepository
	logger      *zap.Logger
}

func NewQuoteVersionService(versionRepo *repository.QuoteVersionRepository, logger *zap.Logger) *QuoteVersionService {
	return &QuoteVersionService{
		versionRepo: versionRepo,
		logger:      logger,
	}
}

// SnapshotOptions carries the optional metadata of a snapshot.
type SnapshotOptions struct {
	ChangeDescription string
	ChangedFields     []string
	ChangeReason      string
}

// CreateSnapshot appends a new immutable version of the quote and its lines.
// The version number is one past the count of existing versions for the
// quote, so the sequence per quote is exactly 1, 2, 3, ... without gaps.
// Inputs are deep-copied and never mutated.
func (s *QuoteVersionService) CreateSnapshot(ctx context.Context, quote *domain.Quote, lines []domain.QuoteLine, changeType domain.ChangeType, createdBy string, opts SnapshotOptions) (*domain.QuoteVersion, error) {
	count, err := s.versionRepo.CountByQuote(ctx, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count versions: %w", err)
	}

	lineData, err := json.Marshal(snapshotLines(lines))
	if err != nil {
		return nil, fmt.Errorf("failed to encode line snapshot: %w", err)
	}

	version := &domain.QuoteVersion{
		QuoteID:           quote.ID,
		VersionNumber:     count + 1,
		ChangeType:        changeType,
		ChangeDescription: opts.ChangeDescription,
		ChangedFields:     opts.ChangedFields,
		ChangeReason:      opts.ChangeReason,
		CreatedBy:         createdBy,
		CreatedOn:         time.Now().UTC(),
		Name:              quote.Name,
		Description:       quote.Description,
		Customer:          quote.Customer,
		State:             quote.State,
		SubState:          quote.SubState,
		EffectiveFrom:     copyTime(quote.EffectiveFrom),
		EffectiveTo:       copyTime(quote.EffectiveTo),
		TotalLineAmount:   quote.TotalLineAmount,
		TotalDiscount:     quote.TotalDiscount,
		TotalTax:          quote.TotalTax,
		TotalAmount:       quote.TotalAmount,
		LineData:          string(lineData),
	}

	if err := s.versionRepo.Create(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to append version: %w", err)
	}

	s.logger.Debug("appended quote version",
		zap.String("quoteID", quote.ID.String()),
		zap.Int("versionNumber", version.VersionNumber),
		zap.String("changeType", string(changeType)))

	return version, nil
}

// GetByID returns a single version snapshot
func (s *QuoteVersionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteVersionDTO, error) {
	version, err := s.versionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	lines, err := decodeLineData(version)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToQuoteVersionDTO(version, lines)
	return &dto, nil
}

// ListByQuote returns the full history of a quote, oldest first.
func (s *QuoteVersionService) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteVersionDTO, error) {
	versions, err := s.versionRepo.ListByQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	dtos := make([]domain.QuoteVersionDTO, len(versions))
	for i := range versions {
		lines, err := decodeLineData(&versions[i])
		if err != nil {
			return nil, err
		}
		dtos[i] = mapper.ToQuoteVersionDTO(&versions[i], lines)
	}
	return dtos, nil
}

// Compare computes the structured difference between two version snapshots.
// Results are deterministic: quote fields in tracked-field order, added and
// modified lines in the order they appear in the "to" snapshot, removed lines
// in the order they appear in the "from" snapshot.
func (s *QuoteVersionService) Compare(ctx context.Context, fromID, toID uuid.UUID) (*domain.VersionComparison, error) {
	from, err := s.versionRepo.GetByID(ctx, fromID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get from-version: %w", err)
	}
	to, err := s.versionRepo.GetByID(ctx, toID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get to-version: %w", err)
	}

	fromLines, err := decodeLineData(from)
	if err != nil {
		return nil, err
	}
	toLines, err := decodeLineData(to)
	if err != nil {
		return nil, err
	}

	comparison := &domain.VersionComparison{
		FromVersionID: from.ID,
		ToVersionID:   to.ID,
		QuoteChanges:  diffQuoteFields(from, to),
	}
	comparison.LinesAdded, comparison.LinesRemoved, comparison.LinesModified = diffLines(fromLines, toLines)

	comparison.Summary = domain.ComparisonSummary{
		QuoteFieldChanges: len(comparison.QuoteChanges),
		LinesAdded:        len(comparison.LinesAdded),
		LinesRemoved:      len(comparison.LinesRemoved),
		LinesModified:     len(comparison.LinesModified),
	}
	comparison.Summary.TotalChanges = comparison.Summary.QuoteFieldChanges +
		comparison.Summary.LinesAdded +
		comparison.Summary.LinesRemoved +
		comparison.Summary.LinesModified

	return comparison, nil
}

// snapshotLines builds the normalized, deep-copied projection of the lines.
func snapshotLines(lines []domain.QuoteLine) []domain.QuoteLineSnapshot {
	snapshots := make([]domain.QuoteLineSnapshot, len(lines))
	for i, line := range lines {
		snapshots[i] = domain.QuoteLineSnapshot{
			LineID:         line.ID,
			ProductID:      copyUUID(line.ProductID),
			Description:    line.Description,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			Discount:       line.ManualDiscount,
			Tax:            line.Tax,
			BaseAmount:     line.BaseAmount,
			ExtendedAmount: line.ExtendedAmount,
		}
	}
	return snapshots
}

func decodeLineData(version *domain.QuoteVersion) ([]domain.QuoteLineSnapshot, error) {
	if version.LineData == "" {
		return nil, nil
	}
	var lines []domain.QuoteLineSnapshot
	if err := json.Unmarshal([]byte(version.LineData), &lines); err != nil {
		return nil, fmt.Errorf("corrupt line data on version %s: %w", version.ID, err)
	}
	return lines, nil
}

// diffQuoteFields emits a change entry for every tracked quote scalar field
// whose value differs between the two snapshots.
func diffQuoteFields(from, to *domain.QuoteVersion) []domain.FieldChange {
	changes := make([]domain.FieldChange, 0, len(quoteTrackedFields))

	appendChange := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, domain.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue})
		}
	}

	appendChange("name", from.Name, to.Name)
	appendChange("description", from.Description, to.Description)
	appendChange("customerId", formatCustomerRef(from.Customer), formatCustomerRef(to.Customer))
	appendChange("effectiveFrom", formatDate(from.EffectiveFrom), formatDate(to.EffectiveFrom))
	appendChange("effectiveTo", formatDate(from.EffectiveTo), formatDate(to.EffectiveTo))
	appendChange("totalAmount", formatAmount(from.TotalAmount), formatAmount(to.TotalAmount))
	appendChange("state", string(from.State), string(to.State))
	appendChange("subState", string(from.SubState), string(to.SubState))

	return changes
}

// diffLines partitions the lines of two snapshots into added, removed, and
// modified sets keyed by line id.
func diffLines(fromLines, toLines []domain.QuoteLineSnapshot) ([]domain.QuoteLineSnapshot, []domain.QuoteLineSnapshot, []domain.LineChange) {
	fromByID := make(map[uuid.UUID]domain.QuoteLineSnapshot, len(fromLines))
	for _, line := range fromLines {
		fromByID[line.LineID] = line
	}
	toByID := make(map[uuid.UUID]domain.QuoteLineSnapshot, len(toLines))
	for _, line := range toLines {
		toByID[line.LineID] = line
	}

	var added []domain.QuoteLineSnapshot
	var modified []domain.LineChange
	for _, toLine := range toLines {
		fromLine, exists := fromByID[toLine.LineID]
		if !exists {
			added = append(added, toLine)
			continue
		}
		if fieldChanges := diffLineFields(fromLine, toLine); len(fieldChanges) > 0 {
			modified = append(modified, domain.LineChange{
				LineID:      toLine.LineID,
				Description: toLine.Description,
				Changes:     fieldChanges,
			})
		}
	}

	var removed []domain.QuoteLineSnapshot
	for _, fromLine := range fromLines {
		if _, exists := toByID[fromLine.LineID]; !exists {
			removed = append(removed, fromLine)
		}
	}

	return added, removed, modified
}

func diffLineFields(from, to domain.QuoteLineSnapshot) []domain.FieldChange {
	changes := make([]domain.FieldChange, 0, len(lineTrackedFields))

	appendChange := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, domain.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue})
		}
	}

	appendChange("quantity", fmt.Sprintf("%d", from.Quantity), fmt.Sprintf("%d", to.Quantity))
	appendChange("unitPrice", formatAmount(from.UnitPrice), formatAmount(to.UnitPrice))
	appendChange("discount", formatAmount(from.Discount), formatAmount(to.Discount))
	appendChange("tax", formatAmount(from.Tax), formatAmount(to.Tax))
	appendChange("extendedAmount", formatAmount(from.ExtendedAmount), formatAmount(to.ExtendedAmount))

	return changes
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatCustomerRef(ref domain.CustomerRef) string {
	if !ref.IsSet() {
		return ""
	}
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
