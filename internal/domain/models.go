package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an id when the caller did not provide one.
// IDs are generated application-side so the same models work on
// postgres and the sqlite databases used in tests.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CustomerKind discriminates what entity a quote's customer reference points at.
// The kind and the id travel together; a quote never carries an id of one kind
// tagged as another.
type CustomerKind string

const (
	CustomerKindAccount CustomerKind = "account"
	CustomerKindContact CustomerKind = "contact"
)

// IsValid checks if the CustomerKind is a valid enum value
func (k CustomerKind) IsValid() bool {
	return k == CustomerKindAccount || k == CustomerKindContact
}

// CustomerRef is a tagged reference to the quote's customer.
type CustomerRef struct {
	Kind CustomerKind `gorm:"type:varchar(20);column:customer_kind"`
	ID   *uuid.UUID   `gorm:"type:uuid;column:customer_id;index"`
}

// IsSet reports whether the reference points at anything.
func (r CustomerRef) IsSet() bool {
	return r.ID != nil
}

// OpportunityStatus represents the status of an opportunity
type OpportunityStatus string

const (
	OpportunityStatusOpen OpportunityStatus = "open"
	OpportunityStatusWon  OpportunityStatus = "won"
	OpportunityStatusLost OpportunityStatus = "lost"
)

// Opportunity represents an upstream pipeline record a quote can originate from.
// When a quote is won the engine closes the opportunity as won on a best-effort
// basis; the quote transition never depends on the outcome.
type Opportunity struct {
	BaseModel
	Name            string            `gorm:"type:varchar(200);not null;index"`
	Customer        CustomerRef       `gorm:"embedded"`
	Status          OpportunityStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	EstimatedValue  decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0;column:estimated_value"`
	ActualRevenue   decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0;column:actual_revenue"`
	ActualCloseDate *time.Time        `gorm:"type:date;column:actual_close_date"`
	OwnerID         string            `gorm:"type:varchar(100);column:owner_id"`
	Description     string            `gorm:"type:text"`
}

// Quote represents a priced proposal document.
// Monetary aggregates are derived from the lines and are only ever written by
// the recomputation routine; every other code path treats them as read-only.
type Quote struct {
	BaseModel
	Name            string          `gorm:"type:varchar(200);not null;index"`
	Description     string          `gorm:"type:text"`
	Customer        CustomerRef     `gorm:"embedded"`
	OpportunityID   *uuid.UUID      `gorm:"type:uuid;index;column:opportunity_id"`
	Opportunity     *Opportunity    `gorm:"foreignKey:OpportunityID"`
	State           QuoteState      `gorm:"type:varchar(20);not null;default:'draft';index"`
	SubState        QuoteSubState   `gorm:"type:varchar(20);not null;default:'in_review';column:sub_state"`
	EffectiveFrom   *time.Time      `gorm:"type:date;column:effective_from"`
	EffectiveTo     *time.Time      `gorm:"type:date;column:effective_to"`
	TotalLineAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_line_amount"`
	TotalDiscount   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_discount"`
	TotalTax        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_tax"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_amount"`
	ClosureReason   string          `gorm:"type:varchar(500);column:closure_reason"`
	OwnerID         string          `gorm:"type:varchar(100);column:owner_id"`
	Lines           []QuoteLine     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Versions        []QuoteVersion  `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
}

// QuoteLine represents one purchasable item on a quote.
// BaseAmount and ExtendedAmount are derived and recomputed on every write.
type QuoteLine struct {
	BaseModel
	QuoteID        uuid.UUID       `gorm:"type:uuid;not null;index;column:quote_id"`
	Quote          *Quote          `gorm:"foreignKey:QuoteID"`
	ProductID      *uuid.UUID      `gorm:"type:uuid;column:product_id"`
	Description    string          `gorm:"type:varchar(500);not null"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(15,2);not null;column:unit_price"`
	ManualDiscount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:manual_discount"`
	Tax            decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	BaseAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:base_amount"`
	ExtendedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:extended_amount"`
}

// ChangeType tags what kind of change a version snapshot captured.
// It is descriptive metadata for the history timeline and diff summaries;
// transition legality is decided by the state machine, never by this tag.
type ChangeType string

const (
	ChangeTypeCreated         ChangeType = "created"
	ChangeTypeUpdated         ChangeType = "updated"
	ChangeTypeActivated       ChangeType = "activated"
	ChangeTypeWon             ChangeType = "won"
	ChangeTypeLost            ChangeType = "lost"
	ChangeTypeRevised         ChangeType = "revised"
	ChangeTypeCanceled        ChangeType = "canceled"
	ChangeTypeProductAdded    ChangeType = "product_added"
	ChangeTypeProductRemoved  ChangeType = "product_removed"
	ChangeTypeProductUpdated  ChangeType = "product_updated"
	ChangeTypeDiscountApplied ChangeType = "discount_applied"
	ChangeTypePriceChanged    ChangeType = "price_changed"
)

// IsValid checks if the ChangeType is a valid enum value
func (ct ChangeType) IsValid() bool {
	switch ct {
	case ChangeTypeCreated, ChangeTypeUpdated, ChangeTypeActivated, ChangeTypeWon,
		ChangeTypeLost, ChangeTypeRevised, ChangeTypeCanceled, ChangeTypeProductAdded,
		ChangeTypeProductRemoved, ChangeTypeProductUpdated, ChangeTypeDiscountApplied,
		ChangeTypePriceChanged:
		return true
	}
	return false
}

// QuoteVersion is an immutable snapshot of a quote and its lines at a point in
// time. Once created it is never updated; the only permitted deletion is the
// cascade when the parent quote is deleted.
type QuoteVersion struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	QuoteID           uuid.UUID       `gorm:"type:uuid;not null;index;column:quote_id"`
	VersionNumber     int             `gorm:"not null;column:version_number"`
	ChangeType        ChangeType      `gorm:"type:varchar(50);not null;column:change_type"`
	ChangeDescription string          `gorm:"type:varchar(500);column:change_description"`
	ChangedFields     pq.StringArray  `gorm:"type:text[];column:changed_fields"`
	ChangeReason      string          `gorm:"type:varchar(500);column:change_reason"`
	CreatedBy         string          `gorm:"type:varchar(100);not null;column:created_by"`
	CreatedOn         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;column:created_on"`
	Name              string          `gorm:"type:varchar(200)"`
	Description       string          `gorm:"type:text"`
	Customer          CustomerRef     `gorm:"embedded"`
	State             QuoteState      `gorm:"type:varchar(20);not null"`
	SubState          QuoteSubState   `gorm:"type:varchar(20);not null;column:sub_state"`
	EffectiveFrom     *time.Time      `gorm:"type:date;column:effective_from"`
	EffectiveTo       *time.Time      `gorm:"type:date;column:effective_to"`
	TotalLineAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_line_amount"`
	TotalDiscount     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_discount"`
	TotalTax          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_tax"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:total_amount"`
	LineData          string          `gorm:"type:jsonb;column:line_data"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (v *QuoteVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// QuoteLineSnapshot is the normalized projection of a line stored inside a
// version's LineData payload.
type QuoteLineSnapshot struct {
	LineID         uuid.UUID       `json:"lineId"`
	ProductID      *uuid.UUID      `json:"productId,omitempty"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	BaseAmount     decimal.Decimal `json:"baseAmount"`
	ExtendedAmount decimal.Decimal `json:"extendedAmount"`
}

// DiscountMode selects how a bulk discount value is interpreted.
type DiscountMode string

const (
	DiscountModePercentage DiscountMode = "percentage"
	DiscountModeAmount     DiscountMode = "amount"
)

// IsValid checks if the DiscountMode is a valid enum value
func (m DiscountMode) IsValid() bool {
	return m == DiscountModePercentage || m == DiscountModeAmount
}
