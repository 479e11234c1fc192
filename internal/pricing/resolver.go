package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
)

// Resolve returns the unit price for a product, optionally qualified by a
// specific inventory unit. The same chain backs both display and commit
// paths, so a quoted price can never disagree with the charged one.
//
// Priority, first match wins:
//  1. unit selling-price override (> 0)
//  2. product new-condition price (> 0) when the unit is new
//  3. product used-condition price (> 0) when the unit is used
//  4. product physical-SIM price when the unit carries a physical SIM
//  5. product eSIM price when the unit carries an eSIM
//  6. product base price
func Resolve(product models.Product, unit *models.InventoryUnit) decimal.Decimal {
	if unit == nil {
		return product.BasePrice
	}

	if unit.SellingPrice != nil && unit.SellingPrice.IsPositive() {
		return *unit.SellingPrice
	}

	switch unit.Condition {
	case enums.UnitConditionNew:
		if product.NewPrice != nil && product.NewPrice.IsPositive() {
			return *product.NewPrice
		}
	case enums.UnitConditionUsed:
		if product.UsedPrice != nil && product.UsedPrice.IsPositive() {
			return *product.UsedPrice
		}
	}

	if unit.SimType != nil {
		switch *unit.SimType {
		case enums.SimTypePhysical:
			if product.PhysicalSimPrice != nil {
				return *product.PhysicalSimPrice
			}
		case enums.SimTypeESim:
			if product.ESimPrice != nil {
				return *product.ESimPrice
			}
		}
	}

	return product.BasePrice
}
