package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-priceledger/internal/model"
	"go-priceledger/internal/repository"
	"go-priceledger/internal/ws"
	"go-priceledger/pkg/metrics"
	"go-priceledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrProductNotFound signals a lookup miss, distinct from storage failure.
var ErrProductNotFound = errors.New("product not found")

// ValidationError reports the request field that failed a service-level check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field '%s' %s", e.Field, e.Reason)
}

// CreateProductRequest carries the inputs for creating a product. Boundary
// layers validate shape; the service still rejects negative decimals itself.
type CreateProductRequest struct {
	Name             string              `json:"name" validate:"required,max=255"`
	UnitOfMeasure    model.UnitOfMeasure `json:"unit_of_measure" validate:"omitempty,oneof=KG GRAM PIECE DOZEN BOX LITER"`
	SellPrice        decimal.Decimal     `json:"sell_price"`
	CurrentStock     decimal.Decimal     `json:"current_stock"`
	IsActive         *bool               `json:"is_active"`
	InitialCostPrice decimal.Decimal     `json:"initial_cost_price"`
}

// ProductLedgerService orchestrates products and their append-only cost-price
// history. Cost price changes are always recorded, never overwritten.
type ProductLedgerService interface {
	Find(activeOnly bool) ([]model.Product, error)
	Create(req *CreateProductRequest) (*model.Product, error)
	UpdatePrices(id uuid.UUID, newSellPrice, newCostPrice *decimal.Decimal) (*model.Product, error)
}

type productLedgerService struct {
	productRepo repository.ProductRepository
	wsHub       *ws.Hub
}

func NewProductLedgerService(productRepo repository.ProductRepository, hub *ws.Hub) ProductLedgerService {
	return &productLedgerService{
		productRepo: productRepo,
		wsHub:       hub,
	}
}

func (s *productLedgerService) Find(activeOnly bool) ([]model.Product, error) {
	return s.productRepo.FindAll(activeOnly, true)
}

func (s *productLedgerService) Create(req *CreateProductRequest) (*model.Product, error) {
	// 1. Struct validation
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, &ValidationError{
			Field:  firstErr.FailedField,
			Reason: fmt.Sprintf("failed on tag '%s'", firstErr.Tag),
		}
	}

	// 2. Negative decimals are rejected even if the boundary let them through
	if err := rejectNegative("sell_price", req.SellPrice); err != nil {
		return nil, err
	}
	if err := rejectNegative("initial_cost_price", req.InitialCostPrice); err != nil {
		return nil, err
	}
	if err := rejectNegative("current_stock", req.CurrentStock); err != nil {
		return nil, err
	}

	unit := req.UnitOfMeasure
	if unit == "" {
		unit = model.UnitKG
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	product := &model.Product{
		Name:          req.Name,
		UnitOfMeasure: unit,
		SellPrice:     req.SellPrice,
		CurrentStock:  req.CurrentStock,
		IsActive:      active,
	}

	// 3. Product row and baseline history entry commit together or not at all.
	// The baseline is written unconditionally, even for a zero cost, so the
	// current cost price is always backed by at least one record.
	err := s.productRepo.Atomic(func(tx *gorm.DB) error {
		if err := s.productRepo.Insert(tx, product); err != nil {
			return err
		}
		entry := &model.PriceHistoryEntry{
			ProductID: product.ID,
			CostPrice: req.InitialCostPrice,
		}
		return s.productRepo.InsertHistoryEntry(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	metrics.PriceHistoryAppends.WithLabelValues("baseline").Inc()

	// 4. Re-read so the caller observes the seeded baseline entry
	created, err := s.productRepo.FindByID(nil, product.ID, true)
	if err != nil {
		return nil, err
	}

	s.broadcastProductEvent("product_created", created)
	return created, nil
}

func (s *productLedgerService) UpdatePrices(id uuid.UUID, newSellPrice, newCostPrice *decimal.Decimal) (*model.Product, error) {
	if newSellPrice != nil {
		if err := rejectNegative("new_sell_price", *newSellPrice); err != nil {
			return nil, err
		}
	}
	if newCostPrice != nil {
		if err := rejectNegative("new_cost_price", *newCostPrice); err != nil {
			return nil, err
		}
	}

	costChanged := false

	// Read-compare-append runs under one transaction with the product row
	// locked, so concurrent cost updates cannot both observe a stale current
	// cost.
	err := s.productRepo.Atomic(func(tx *gorm.DB) error {
		product, err := s.productRepo.FindByIDForUpdate(tx, id, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		if newSellPrice != nil {
			if err := s.productRepo.UpdateSellPrice(tx, product.ID, *newSellPrice); err != nil {
				return err
			}
		}

		if newCostPrice != nil && !newCostPrice.Equal(product.CurrentCostPrice()) {
			entry := &model.PriceHistoryEntry{
				ProductID: product.ID,
				CostPrice: *newCostPrice,
			}
			if err := s.productRepo.InsertHistoryEntry(tx, entry); err != nil {
				return err
			}
			costChanged = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	if costChanged {
		metrics.PriceHistoryAppends.WithLabelValues("cost_change").Inc()
	}

	updated, err := s.productRepo.FindByID(nil, id, true)
	if err != nil {
		return nil, err
	}

	if newSellPrice != nil || costChanged {
		s.broadcastProductEvent("price_update", updated)
	}
	return updated, nil
}

func rejectNegative(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return nil
}

func (s *productLedgerService) broadcastProductEvent(action string, product *model.Product) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "catalog_update",
			"action": action,
			"product": map[string]interface{}{
				"id":                 product.ID,
				"name":               product.Name,
				"sell_price":         product.SellPrice,
				"current_cost_price": product.CurrentCostPrice(),
				"margin":             product.Margin(),
			},
			"message": fmt.Sprintf("product '%s': %s", product.Name, action),
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
