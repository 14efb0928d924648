package domain

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs. Numeric fields are JSON numbers, never strings; the decode +
// validate step here is the strict parse boundary in front of the calculator.

type CreateQuoteRequest struct {
	Name          string       `json:"name" validate:"required,max=200"`
	Description   string       `json:"description,omitempty" validate:"max=2000"`
	CustomerKind  CustomerKind `json:"customerKind,omitempty" validate:"omitempty,oneof=account contact"`
	CustomerID    *uuid.UUID   `json:"customerId,omitempty"`
	OpportunityID *uuid.UUID   `json:"opportunityId,omitempty"`
	EffectiveFrom *time.Time   `json:"effectiveFrom,omitempty"`
	EffectiveTo   *time.Time   `json:"effectiveTo,omitempty"`
}

// UpdateQuoteRequest applies partial updates: nil pointers leave fields
// untouched. The clear flags unset their fields and take precedence over the
// corresponding pointers when both are sent.
type UpdateQuoteRequest struct {
	Name                 *string      `json:"name,omitempty" validate:"omitempty,max=200"`
	Description          *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	CustomerKind         CustomerKind `json:"customerKind,omitempty" validate:"omitempty,oneof=account contact"`
	CustomerID           *uuid.UUID   `json:"customerId,omitempty"`
	OpportunityID        *uuid.UUID   `json:"opportunityId,omitempty"`
	EffectiveFrom        *time.Time   `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time   `json:"effectiveTo,omitempty"`
	ClearOpportunityID   bool         `json:"clearOpportunityId,omitempty"`
	ClearEffectiveWindow bool         `json:"clearEffectiveWindow,omitempty"`
}

type CreateQuoteLineRequest struct {
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	Description    string     `json:"description" validate:"required,max=500"`
	Quantity       int        `json:"quantity" validate:"required,gt=0"`
	UnitPrice      float64    `json:"unitPrice" validate:"gte=0"`
	ManualDiscount float64    `json:"manualDiscount,omitempty" validate:"gte=0"`
	Tax            float64    `json:"tax,omitempty" validate:"gte=0"`
}

type UpdateQuoteLineRequest struct {
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Quantity       *int       `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice      *float64   `json:"unitPrice,omitempty" validate:"omitempty,gte=0"`
	ManualDiscount *float64   `json:"manualDiscount,omitempty" validate:"omitempty,gte=0"`
	Tax            *float64   `json:"tax,omitempty" validate:"omitempty,gte=0"`
}

type BulkDeleteLinesRequest struct {
	LineIDs []uuid.UUID `json:"lineIds" validate:"required,min=1"`
}

type BulkDiscountRequest struct {
	LineIDs []uuid.UUID  `json:"lineIds" validate:"required,min=1"`
	Mode    DiscountMode `json:"mode" validate:"required,oneof=percentage amount"`
	Value   float64      `json:"value"`
}

type WinQuoteRequest struct {
	ClosureReason string `json:"closureReason,omitempty" validate:"max=500"`
}

type LoseQuoteRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type CancelQuoteRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type ReviseQuoteRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type CreateOpportunityRequest struct {
	Name           string       `json:"name" validate:"required,max=200"`
	CustomerKind   CustomerKind `json:"customerKind,omitempty" validate:"omitempty,oneof=account contact"`
	CustomerID     *uuid.UUID   `json:"customerId,omitempty"`
	EstimatedValue float64      `json:"estimatedValue,omitempty" validate:"gte=0"`
	Description    string       `json:"description,omitempty" validate:"max=2000"`
}

// Response DTOs

type QuoteLineDTO struct {
	ID             uuid.UUID  `json:"id"`
	QuoteID        uuid.UUID  `json:"quoteId"`
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	Description    string     `json:"description"`
	Quantity       int        `json:"quantity"`
	UnitPrice      float64    `json:"unitPrice"`
	ManualDiscount float64    `json:"manualDiscount"`
	Tax            float64    `json:"tax"`
	BaseAmount     float64    `json:"baseAmount"`
	ExtendedAmount float64    `json:"extendedAmount"`
	CreatedAt      string     `json:"createdAt"` // ISO 8601
	UpdatedAt      string     `json:"updatedAt"` // ISO 8601
}

type QuoteDTO struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	CustomerKind    CustomerKind   `json:"customerKind,omitempty"`
	CustomerID      *uuid.UUID     `json:"customerId,omitempty"`
	OpportunityID   *uuid.UUID     `json:"opportunityId,omitempty"`
	State           QuoteState     `json:"state"`
	SubState        QuoteSubState  `json:"subState"`
	EffectiveFrom   *string        `json:"effectiveFrom,omitempty"`
	EffectiveTo     *string        `json:"effectiveTo,omitempty"`
	TotalLineAmount float64        `json:"totalLineAmount"`
	TotalDiscount   float64        `json:"totalDiscount"`
	TotalTax        float64        `json:"totalTax"`
	TotalAmount     float64        `json:"totalAmount"`
	ClosureReason   string         `json:"closureReason,omitempty"`
	OwnerID         string         `json:"ownerId,omitempty"`
	Lines           []QuoteLineDTO `json:"lines,omitempty"`
	CreatedAt       string         `json:"createdAt"`
	UpdatedAt       string         `json:"updatedAt"`
}

// QuoteTotalsDTO exposes the aggregate figures recomputed from current lines.
type QuoteTotalsDTO struct {
	TotalBaseAmount      float64 `json:"totalBaseAmount"`
	TotalLineAmount      float64 `json:"totalLineAmount"`
	TotalDiscount        float64 `json:"totalDiscount"`
	TotalTax             float64 `json:"totalTax"`
	TotalAmount          float64 `json:"totalAmount"`
	LineCount            int     `json:"lineCount"`
	TotalQuantity        int     `json:"totalQuantity"`
	WeightedAveragePrice float64 `json:"weightedAveragePrice"`
}

// LifecycleResultDTO carries the transitioned quote plus any non-fatal
// warnings (partial failures and recommended-guard notices).
type LifecycleResultDTO struct {
	Quote    *QuoteDTO `json:"quote"`
	Warnings []string  `json:"warnings,omitempty"`
}

type QuoteVersionDTO struct {
	ID                uuid.UUID           `json:"id"`
	QuoteID           uuid.UUID           `json:"quoteId"`
	VersionNumber     int                 `json:"versionNumber"`
	ChangeType        ChangeType          `json:"changeType"`
	ChangeDescription string              `json:"changeDescription,omitempty"`
	ChangedFields     []string            `json:"changedFields,omitempty"`
	ChangeReason      string              `json:"changeReason,omitempty"`
	CreatedBy         string              `json:"createdBy"`
	CreatedOn         string              `json:"createdOn"`
	State             QuoteState          `json:"state"`
	SubState          QuoteSubState       `json:"subState"`
	TotalAmount       float64             `json:"totalAmount"`
	Lines             []QuoteLineSnapshot `json:"lines,omitempty"`
}

// FieldChange is a single tracked-field difference between two snapshots.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// LineChange describes a line present in both snapshots with differing
// tracked fields.
type LineChange struct {
	LineID      uuid.UUID     `json:"lineId"`
	Description string        `json:"description"`
	Changes     []FieldChange `json:"changes"`
}

// ComparisonSummary counts the changes a comparison found.
type ComparisonSummary struct {
	QuoteFieldChanges int `json:"quoteFieldChanges"`
	LinesAdded        int `json:"linesAdded"`
	LinesRemoved      int `json:"linesRemoved"`
	LinesModified     int `json:"linesModified"`
	TotalChanges      int `json:"totalChanges"`
}

// VersionComparison is the structured diff between two version snapshots.
type VersionComparison struct {
	FromVersionID uuid.UUID           `json:"fromVersionId"`
	ToVersionID   uuid.UUID           `json:"toVersionId"`
	QuoteChanges  []FieldChange       `json:"quoteChanges"`
	LinesAdded    []QuoteLineSnapshot `json:"linesAdded"`
	LinesRemoved  []QuoteLineSnapshot `json:"linesRemoved"`
	LinesModified []LineChange        `json:"linesModified"`
	Summary       ComparisonSummary   `json:"summary"`
}

type OpportunityDTO struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	CustomerKind    CustomerKind      `json:"customerKind,omitempty"`
	CustomerID      *uuid.UUID        `json:"customerId,omitempty"`
	Status          OpportunityStatus `json:"status"`
	EstimatedValue  float64           `json:"estimatedValue"`
	ActualRevenue   float64           `json:"actualRevenue"`
	ActualCloseDate *string           `json:"actualCloseDate,omitempty"`
	OwnerID         string            `json:"ownerId,omitempty"`
	Description     string            `json:"description,omitempty"`
	CreatedAt       string            `json:"createdAt"`
	UpdatedAt       string            `json:"updatedAt"`
}

// PaginatedResponse wraps list results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"totalPages"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
