package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/enums"
)

// Swap records a trade-in transaction: the customer surrenders a device at an
// appraised value toward the purchase of another product. Customer identity is
// snapshotted so later customer edits do not rewrite history.
type Swap struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number        string     `gorm:"column:number;not null;uniqueIndex" json:"number"`
	CustomerID    *uuid.UUID `gorm:"column:customer_id;type:uuid" json:"customer_id,omitempty"`
	CustomerName  string     `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerPhone *string    `gorm:"column:customer_phone" json:"customer_phone,omitempty"`

	PurchasedProductID uuid.UUID       `gorm:"column:purchased_product_id;type:uuid;not null" json:"purchased_product_id"`
	PurchasePrice      decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2);not null" json:"purchase_price"`
	PurchasedUnitID    *uuid.UUID      `gorm:"column:purchased_unit_id;type:uuid" json:"purchased_unit_id,omitempty"`
	PurchasedSerial    *string         `gorm:"column:purchased_serial" json:"purchased_serial,omitempty"`

	TradeInDescription string              `gorm:"column:trade_in_description;not null" json:"trade_in_description"`
	TradeInSerial      string              `gorm:"column:trade_in_serial;not null" json:"trade_in_serial"`
	TradeInCondition   enums.UnitCondition `gorm:"column:trade_in_condition;not null" json:"trade_in_condition"`
	TradeInValue       decimal.Decimal     `gorm:"column:trade_in_value;type:numeric(12,2);not null" json:"trade_in_value"`
	TradeInResalePrice *decimal.Decimal    `gorm:"column:trade_in_resale_price;type:numeric(12,2)" json:"trade_in_resale_price,omitempty"`

	DifferencePaid decimal.Decimal         `gorm:"column:difference_paid;type:numeric(12,2);not null" json:"difference_paid"`
	PaymentMethod  enums.PaymentMethod     `gorm:"column:payment_method;not null" json:"payment_method"`
	Status         enums.TransactionStatus `gorm:"column:status;not null;default:'completed'" json:"status"`
	CashierID      uuid.UUID               `gorm:"column:cashier_id;type:uuid;not null" json:"cashier_id"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
