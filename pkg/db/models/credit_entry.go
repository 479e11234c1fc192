package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/enums"
)

// CreditEntry is the append-only audit trail of every store-credit mutation.
// It replaces free-text notes as the authoritative record of applied credit,
// so the edit flow never has to parse a prior amount back out of a string.
type CreditEntry struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID   uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	SaleID       *uuid.UUID            `gorm:"column:sale_id;type:uuid" json:"sale_id,omitempty"`
	SwapID       *uuid.UUID            `gorm:"column:swap_id;type:uuid" json:"swap_id,omitempty"`
	Type         enums.CreditEntryType `gorm:"column:type;not null" json:"type"`
	Amount       decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal       `gorm:"column:balance_after;type:numeric(12,2);not null" json:"balance_after"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
