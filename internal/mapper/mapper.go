package mapper

import (
	"time"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/pricing"
)

const dateTimeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToQuoteDTO maps a quote aggregate to its response shape. Lines are included
// only when they were loaded.
func ToQuoteDTO(quote *domain.Quote) domain.QuoteDTO {
	dto := domain.QuoteDTO{
		ID:              quote.ID,
		Name:            quote.Name,
		Description:     quote.Description,
		CustomerKind:    quote.Customer.Kind,
		CustomerID:      quote.Customer.ID,
		OpportunityID:   quote.OpportunityID,
		State:           quote.State,
		SubState:        quote.SubState,
		EffectiveFrom:   formatTimePtr(quote.EffectiveFrom),
		EffectiveTo:     formatTimePtr(quote.EffectiveTo),
		TotalLineAmount: quote.TotalLineAmount.InexactFloat64(),
		TotalDiscount:   quote.TotalDiscount.InexactFloat64(),
		TotalTax:        quote.TotalTax.InexactFloat64(),
		TotalAmount:     quote.TotalAmount.InexactFloat64(),
		ClosureReason:   quote.ClosureReason,
		OwnerID:         quote.OwnerID,
		CreatedAt:       formatTime(quote.CreatedAt),
		UpdatedAt:       formatTime(quote.UpdatedAt),
	}

	if len(quote.Lines) > 0 {
		dto.Lines = make([]domain.QuoteLineDTO, len(quote.Lines))
		for i := range quote.Lines {
			dto.Lines[i] = ToQuoteLineDTO(&quote.Lines[i])
		}
	}

	return dto
}

func ToQuoteLineDTO(line *domain.QuoteLine) domain.QuoteLineDTO {
	return domain.QuoteLineDTO{
		ID:             line.ID,
		QuoteID:        line.QuoteID,
		ProductID:      line.ProductID,
		Description:    line.Description,
		Quantity:       line.Quantity,
		UnitPrice:      line.UnitPrice.InexactFloat64(),
		ManualDiscount: line.ManualDiscount.InexactFloat64(),
		Tax:            line.Tax.InexactFloat64(),
		BaseAmount:     line.BaseAmount.InexactFloat64(),
		ExtendedAmount: line.ExtendedAmount.InexactFloat64(),
		CreatedAt:      formatTime(line.CreatedAt),
		UpdatedAt:      formatTime(line.UpdatedAt),
	}
}

// ToQuoteVersionDTO maps a version snapshot together with its decoded line
// projection.
func ToQuoteVersionDTO(version *domain.QuoteVersion, lines []domain.QuoteLineSnapshot) domain.QuoteVersionDTO {
	return domain.QuoteVersionDTO{
		ID:                version.ID,
		QuoteID:           version.QuoteID,
		VersionNumber:     version.VersionNumber,
		ChangeType:        version.ChangeType,
		ChangeDescription: version.ChangeDescription,
		ChangedFields:     []string(version.ChangedFields),
		ChangeReason:      version.ChangeReason,
		CreatedBy:         version.CreatedBy,
		CreatedOn:         formatTime(version.CreatedOn),
		State:             version.State,
		SubState:          version.SubState,
		TotalAmount:       version.TotalAmount.InexactFloat64(),
		Lines:             lines,
	}
}

// ToTotalsDTO maps a computed aggregate to the totals response, including the
// weighted average unit price derived from the same line set.
func ToTotalsDTO(totals pricing.Totals, lines []domain.QuoteLine) domain.QuoteTotalsDTO {
	return domain.QuoteTotalsDTO{
		TotalBaseAmount:      totals.TotalBaseAmount.InexactFloat64(),
		TotalLineAmount:      totals.TotalLineAmount.InexactFloat64(),
		TotalDiscount:        totals.TotalDiscount.InexactFloat64(),
		TotalTax:             totals.TotalTax.InexactFloat64(),
		TotalAmount:          totals.TotalAmount.InexactFloat64(),
		LineCount:            totals.LineCount,
		TotalQuantity:        totals.TotalQuantity,
		WeightedAveragePrice: pricing.WeightedAveragePrice(lines).InexactFloat64(),
	}
}

func ToOpportunityDTO(opportunity *domain.Opportunity) domain.OpportunityDTO {
	return domain.OpportunityDTO{
		ID:              opportunity.ID,
		Name:            opportunity.Name,
		CustomerKind:    opportunity.Customer.Kind,
		CustomerID:      opportunity.Customer.ID,
		Status:          opportunity.Status,
		EstimatedValue:  opportunity.EstimatedValue.InexactFloat64(),
		ActualRevenue:   opportunity.ActualRevenue.InexactFloat64(),
		ActualCloseDate: formatTimePtr(opportunity.ActualCloseDate),
		OwnerID:         opportunity.OwnerID,
		Description:     opportunity.Description,
		CreatedAt:       formatTime(opportunity.CreatedAt),
		UpdatedAt:       formatTime(opportunity.UpdatedAt),
	}
}
