package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/enums"
)

// InventoryUnit is one physical serialized device. IMEI is globally unique
// across all units; SellingPrice overrides every catalog price tier when set.
type InventoryUnit struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID    uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	IMEI         string              `gorm:"column:imei;not null;uniqueIndex" json:"imei"`
	Status       enums.UnitStatus    `gorm:"column:status;not null;default:'in_stock'" json:"status"`
	Condition    enums.UnitCondition `gorm:"column:condition;not null" json:"condition"`
	SimType      *enums.SimType      `gorm:"column:sim_type" json:"sim_type,omitempty"`
	SellingPrice *decimal.Decimal    `gorm:"column:selling_price;type:numeric(12,2)" json:"selling_price,omitempty"`
	PurchaseCost *decimal.Decimal    `gorm:"column:purchase_cost;type:numeric(12,2)" json:"purchase_cost,omitempty"`
	SaleID       *uuid.UUID          `gorm:"column:sale_id;type:uuid" json:"sale_id,omitempty"`
	CustomerID   *uuid.UUID          `gorm:"column:customer_id;type:uuid" json:"customer_id,omitempty"`
	SoldAt       *time.Time          `gorm:"column:sold_at" json:"sold_at,omitempty"`
	Note         *string             `gorm:"column:note" json:"note,omitempty"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
