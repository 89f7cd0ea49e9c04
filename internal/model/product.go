package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitOfMeasure enumerates the stock-keeping units a product can be sold in.
type UnitOfMeasure string

const (
	UnitKG    UnitOfMeasure = "KG"
	UnitGram  UnitOfMeasure = "GRAM"
	UnitPiece UnitOfMeasure = "PIECE"
	UnitDozen UnitOfMeasure = "DOZEN"
	UnitBox   UnitOfMeasure = "BOX"
	UnitLiter UnitOfMeasure = "LITER"
)

// Product is a catalog entry. The current cost price is not a column: it is
// derived from the newest PriceHistory entry.
type Product struct {
	BaseModel
	Name          string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	UnitOfMeasure UnitOfMeasure   `gorm:"type:varchar(20);default:'KG'" json:"unit_of_measure"`
	SellPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sell_price"`
	CurrentStock  decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"current_stock"`
	// No gorm default here: a zero-value false with a default tag would be
	// dropped from the INSERT. The service owns the default.
	IsActive bool `gorm:"not null" json:"is_active"`

	// Ordered newest first when loaded through the repository
	PriceHistory []PriceHistoryEntry `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"price_history,omitempty"`
}

// PriceHistoryEntry is one immutable cost-price record. Rows are only ever
// appended, never updated or deleted.
type PriceHistoryEntry struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	EffectiveFromDate time.Time       `gorm:"autoCreateTime;index" json:"effective_from_date"`
}

func (e *PriceHistoryEntry) BeforeCreate(tx *gorm.DB) (err error) {
	e.ID = uuid.New()
	return
}

// CurrentCostPrice returns the cost of the newest history entry, or zero when
// no history is loaded. Callers must load PriceHistory (newest first) before
// deriving from the product.
func (p *Product) CurrentCostPrice() decimal.Decimal {
	if len(p.PriceHistory) == 0 {
		return decimal.Zero
	}
	return p.PriceHistory[0].CostPrice
}

// Margin returns the sell price minus the current cost price.
func (p *Product) Margin() decimal.Decimal {
	return p.SellPrice.Sub(p.CurrentCostPrice())
}

// ProductResponse is used for API responses, with the derived values attached
type ProductResponse struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	UnitOfMeasure    UnitOfMeasure       `json:"unit_of_measure"`
	SellPrice        decimal.Decimal     `json:"sell_price"`
	CurrentStock     decimal.Decimal     `json:"current_stock"`
	IsActive         bool                `json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	CurrentCostPrice decimal.Decimal     `json:"current_cost_price"`
	Margin           decimal.Decimal     `json:"margin"`
	PriceHistory     []PriceHistoryEntry `json:"price_history"`
}

// ToResponse converts Product to ProductResponse
func (p *Product) ToResponse() ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		UnitOfMeasure:    p.UnitOfMeasure,
		SellPrice:        p.SellPrice,
		CurrentStock:     p.CurrentStock,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		CurrentCostPrice: p.CurrentCostPrice(),
		Margin:           p.Margin(),
		PriceHistory:     p.PriceHistory,
	}
}
