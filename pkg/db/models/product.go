package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. A non-nil ProductModelID marks the
// product as unit-tracked: its physical stock lives in inventory_units and
// the Stock counter is ignored.
type Product struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string           `gorm:"column:name;not null" json:"name"`
	BasePrice        decimal.Decimal  `gorm:"column:base_price;type:numeric(12,2);not null" json:"base_price"`
	NewPrice         *decimal.Decimal `gorm:"column:new_price;type:numeric(12,2)" json:"new_price,omitempty"`
	UsedPrice        *decimal.Decimal `gorm:"column:used_price;type:numeric(12,2)" json:"used_price,omitempty"`
	PhysicalSimPrice *decimal.Decimal `gorm:"column:physical_sim_price;type:numeric(12,2)" json:"physical_sim_price,omitempty"`
	ESimPrice        *decimal.Decimal `gorm:"column:esim_price;type:numeric(12,2)" json:"esim_price,omitempty"`
	ProductModelID   *uuid.UUID       `gorm:"column:product_model_id;type:uuid" json:"product_model_id,omitempty"`
	Stock            int              `gorm:"column:stock;not null;default:0" json:"stock"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// UnitTracked reports whether physical units are serialized for this product.
func (p Product) UnitTracked() bool {
	return p.ProductModelID != nil
}
