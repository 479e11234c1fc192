package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/enums"
)

// Sale is the durable checkout record. Once the row exists, downstream
// reconciliation failures are surfaced as warnings and never delete it.
type Sale struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number          string                  `gorm:"column:number;not null;uniqueIndex" json:"number"`
	CustomerID      *uuid.UUID              `gorm:"column:customer_id;type:uuid" json:"customer_id,omitempty"`
	Items           []SaleLineItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal        decimal.Decimal         `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	DiscountPercent decimal.Decimal         `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal         `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0" json:"discount_amount"`
	TaxAmount       decimal.Decimal         `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0" json:"tax_amount"`
	Total           decimal.Decimal         `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	CreditApplied   decimal.Decimal         `gorm:"column:credit_applied;type:numeric(12,2);not null;default:0" json:"credit_applied"`
	CashNeeded      decimal.Decimal         `gorm:"column:cash_needed;type:numeric(12,2);not null" json:"cash_needed"`
	PaymentMethod   enums.PaymentMethod     `gorm:"column:payment_method;not null" json:"payment_method"`
	Status          enums.TransactionStatus `gorm:"column:status;not null;default:'completed'" json:"status"`
	Notes           *string                 `gorm:"column:notes" json:"notes,omitempty"`
	CashierID       uuid.UUID               `gorm:"column:cashier_id;type:uuid;not null" json:"cashier_id"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
