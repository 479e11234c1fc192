package cart

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/internal/pricing"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

// Line is an in-progress cart row for one product. For unit-tracked products
// UnitPrice is the mean over the consumed units; UnitIDs/UnitSerials keep the
// exact composition.
type Line struct {
	ProductID   uuid.UUID
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	UnitIDs     []uuid.UUID
	UnitSerials []string
}

// UnitTracked reports whether the line consumes serialized units.
func (l Line) UnitTracked() bool {
	return len(l.UnitIDs) > 0
}

// Cart accumulates lines keyed by product, preserving insertion order.
type Cart struct {
	order []uuid.UUID
	lines map[uuid.UUID]Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[uuid.UUID]Line)}
}

// Lines returns the cart rows in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.lines[id])
	}
	return out
}

// AddUnits merges the selected serialized units into the product's line. When
// the product already has a line, the mean is recomputed over the combined
// set by accumulating total price and quantity; partial means are never
// re-averaged.
func (c *Cart) AddUnits(product models.Product, units []models.InventoryUnit) (Line, error) {
	if len(units) == 0 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one unit must be selected")
	}

	existing, ok := c.lines[product.ID]
	if !ok {
		existing = Line{ProductID: product.ID, ProductName: product.Name}
	}

	seen := make(map[uuid.UUID]struct{}, len(existing.UnitIDs))
	for _, id := range existing.UnitIDs {
		seen[id] = struct{}{}
	}

	total := existing.LineTotal
	qty := existing.Qty
	unitIDs := existing.UnitIDs
	serials := existing.UnitSerials

	for i := range units {
		unit := units[i]
		if unit.ProductID != product.ID {
			return Line{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unit %s does not belong to product %s", unit.IMEI, product.Name))
		}
		if _, dup := seen[unit.ID]; dup {
			return Line{}, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("unit %s is already in the cart", unit.IMEI))
		}
		seen[unit.ID] = struct{}{}

		total = total.Add(pricing.Resolve(product, &unit))
		qty++
		unitIDs = append(unitIDs, unit.ID)
		serials = append(serials, unit.IMEI)
	}

	line := Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		Qty:         qty,
		UnitPrice:   total.DivRound(decimal.NewFromInt(int64(qty)), 2),
		LineTotal:   total,
		UnitIDs:     unitIDs,
		UnitSerials: serials,
	}
	c.put(line)
	return line, nil
}

// AddBulk increments a non-unit-tracked product's line by one at base price.
func (c *Cart) AddBulk(product models.Product) (Line, error) {
	if product.UnitTracked() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("product %s is unit-tracked; select units instead", product.Name))
	}

	existing, ok := c.lines[product.ID]
	if !ok {
		existing = Line{ProductID: product.ID, ProductName: product.Name, UnitPrice: product.BasePrice}
	}

	existing.Qty++
	existing.LineTotal = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Qty)))
	c.put(existing)
	return existing, nil
}

// RemoveBulk decrements a non-unit-tracked line; at zero the line is dropped.
func (c *Cart) RemoveBulk(productID uuid.UUID) (Line, bool) {
	existing, ok := c.lines[productID]
	if !ok || existing.UnitTracked() {
		return Line{}, false
	}

	existing.Qty--
	if existing.Qty <= 0 {
		c.remove(productID)
		return Line{}, false
	}
	existing.LineTotal = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Qty)))
	c.put(existing)
	return existing, true
}

// RemoveLine drops a product's line entirely, returning its unit ids so the
// caller can release any holds.
func (c *Cart) RemoveLine(productID uuid.UUID) []uuid.UUID {
	existing, ok := c.lines[productID]
	if !ok {
		return nil
	}
	c.remove(productID)
	return existing.UnitIDs
}

func (c *Cart) put(line Line) {
	if _, ok := c.lines[line.ProductID]; !ok {
		c.order = append(c.order, line.ProductID)
	}
	c.lines[line.ProductID] = line
}

func (c *Cart) remove(productID uuid.UUID) {
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
