package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	dbtypes "github.com/rmoralesc/movilpos-backend/pkg/db/types"
)

// SaleLineItem is one cart row of a sale. For unit-tracked products UnitPrice
// is the arithmetic mean over the consumed units; UnitIDs and UnitSerials keep
// the true per-unit composition so the mean never loses information.
type SaleLineItem struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID      uuid.UUID         `gorm:"column:sale_id;type:uuid;not null;index" json:"sale_id"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductName string            `gorm:"column:product_name;not null" json:"product_name"`
	Qty         int               `gorm:"column:qty;not null" json:"qty"`
	UnitPrice   decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal   `gorm:"column:line_total;type:numeric(12,2);not null" json:"line_total"`
	UnitIDs     dbtypes.UUIDArray `gorm:"column:unit_ids;type:uuid[]" json:"unit_ids,omitempty"`
	UnitSerials pq.StringArray    `gorm:"column:unit_serials;type:text[]" json:"unit_serials,omitempty"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
