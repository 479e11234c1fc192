package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditAccount holds one customer's store-credit balance. Version is the
// optimistic concurrency token: every balance write must carry the version it
// read, so concurrent deductions cannot silently overwrite each other.
type CreditAccount struct {
	CustomerID uuid.UUID       `gorm:"column:customer_id;type:uuid;primaryKey" json:"customer_id"`
	Balance    decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0" json:"balance"`
	Version    int64           `gorm:"column:version;not null;default:0" json:"-"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
