package repository

import (
	"go-priceledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is the persistence port for the product ledger. Methods
// taking a *gorm.DB run inside the caller's transaction; pass nil to use the
// repository's own handle.
type ProductRepository interface {
	Insert(tx *gorm.DB, product *model.Product) error
	InsertHistoryEntry(tx *gorm.DB, entry *model.PriceHistoryEntry) error
	FindByID(tx *gorm.DB, id uuid.UUID, withHistory bool) (*model.Product, error)
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID, withHistory bool) (*model.Product, error)
	FindAll(activeOnly, withHistory bool) ([]model.Product, error)
	UpdateSellPrice(tx *gorm.DB, id uuid.UUID, sellPrice decimal.Decimal) error
	Atomic(fn func(tx *gorm.DB) error) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// withOrderedHistory preloads the price history newest first; index 0 is
// authoritative for the current cost price.
func withOrderedHistory(q *gorm.DB) *gorm.DB {
	return q.Preload("PriceHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("effective_from_date DESC")
	})
}

func (r *productRepo) Insert(tx *gorm.DB, product *model.Product) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(product).Error
}

func (r *productRepo) InsertHistoryEntry(tx *gorm.DB, entry *model.PriceHistoryEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entry).Error
}

func (r *productRepo) FindByID(tx *gorm.DB, id uuid.UUID, withHistory bool) (*model.Product, error) {
	return r.findByID(tx, id, withHistory, false)
}

// FindByIDForUpdate locks the product row for the duration of the enclosing
// transaction (Pessimistic Locking). SQLite serializes writers on its own and
// rejects FOR UPDATE, so the clause is only applied on postgres.
func (r *productRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID, withHistory bool) (*model.Product, error) {
	return r.findByID(tx, id, withHistory, true)
}

func (r *productRepo) findByID(tx *gorm.DB, id uuid.UUID, withHistory, forUpdate bool) (*model.Product, error) {
	if tx == nil {
		tx = r.db
	}
	q := tx
	if withHistory {
		q = withOrderedHistory(q)
	}
	if forUpdate && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product model.Product
	if err := q.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindAll(activeOnly, withHistory bool) ([]model.Product, error) {
	q := r.db.Order("created_at, id")
	if withHistory {
		q = withOrderedHistory(q)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var products []model.Product
	err := q.Find(&products).Error
	return products, err
}

// UpdateSellPrice writes the sell price directly; it never touches history.
func (r *productRepo) UpdateSellPrice(tx *gorm.DB, id uuid.UUID, sellPrice decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("sell_price", sellPrice).Error
}

// Atomic runs fn in one transaction: commit on success, rollback and
// propagate on any error.
func (r *productRepo) Atomic(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}
