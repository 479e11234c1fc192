package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func trackedProduct(name string) models.Product {
	modelID := uuid.New()
	return models.Product{
		ID:             uuid.New(),
		Name:           name,
		BasePrice:      dec("300.00"),
		ProductModelID: &modelID,
	}
}

func unitFor(p models.Product, imei, price string) models.InventoryUnit {
	u := models.InventoryUnit{
		ID:        uuid.New(),
		ProductID: p.ID,
		IMEI:      imei,
		Status:    enums.UnitStatusInStock,
		Condition: enums.UnitConditionUsed,
	}
	if price != "" {
		u.SellingPrice = decPtr(price)
	}
	return u
}

func TestAddUnitsMeanPrice(t *testing.T) {
	c := New()
	p := trackedProduct("iPhone 13")

	line, err := c.AddUnits(p, []models.InventoryUnit{
		unitFor(p, "100000000000001", "200.00"),
		unitFor(p, "100000000000002", "300.00"),
		unitFor(p, "100000000000003", "220.00"),
	})
	if err != nil {
		t.Fatalf("AddUnits: %v", err)
	}

	if line.Qty != 3 {
		t.Fatalf("qty = %d, want 3", line.Qty)
	}
	if !line.LineTotal.Equal(dec("720.00")) {
		t.Fatalf("line total = %s, want 720.00", line.LineTotal)
	}
	if !line.UnitPrice.Equal(dec("240.00")) {
		t.Fatalf("unit price = %s, want 240.00", line.UnitPrice)
	}
}

func TestAddUnitsMergeAccumulatesTotals(t *testing.T) {
	c := New()
	p := trackedProduct("iPhone 13")

	if _, err := c.AddUnits(p, []models.InventoryUnit{
		unitFor(p, "100000000000001", "200.00"),
		unitFor(p, "100000000000002", "300.00"),
	}); err != nil {
		t.Fatalf("first AddUnits: %v", err)
	}

	// Mean of {200,300,100} is 200; averaging the partial means
	// (250 and 100) would give 175.
	line, err := c.AddUnits(p, []models.InventoryUnit{
		unitFor(p, "100000000000003", "100.00"),
	})
	if err != nil {
		t.Fatalf("second AddUnits: %v", err)
	}

	if !line.LineTotal.Equal(dec("600.00")) {
		t.Fatalf("line total = %s, want 600.00", line.LineTotal)
	}
	if !line.UnitPrice.Equal(dec("200.00")) {
		t.Fatalf("unit price = %s, want 200.00", line.UnitPrice)
	}
	if got := len(c.Lines()); got != 1 {
		t.Fatalf("lines = %d, want 1 merged line", got)
	}
}

func TestAddUnitsRejectsEmptyAndForeignAndDuplicate(t *testing.T) {
	c := New()
	p := trackedProduct("iPhone 13")

	if _, err := c.AddUnits(p, nil); pkgerrors.As(err) == nil {
		t.Fatalf("empty unit set: got %v, want validation error", err)
	}

	other := trackedProduct("Galaxy S22")
	stray := unitFor(other, "100000000000009", "150.00")
	if _, err := c.AddUnits(p, []models.InventoryUnit{stray}); err == nil {
		t.Fatal("foreign unit accepted")
	}

	u := unitFor(p, "100000000000001", "200.00")
	if _, err := c.AddUnits(p, []models.InventoryUnit{u}); err != nil {
		t.Fatalf("AddUnits: %v", err)
	}
	_, err := c.AddUnits(p, []models.InventoryUnit{u})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("duplicate unit: got %v, want conflict", err)
	}
}

func TestBulkAddRemove(t *testing.T) {
	c := New()
	p := models.Product{ID: uuid.New(), Name: "USB-C cable", BasePrice: dec("15.00"), Stock: 10}

	for i := 0; i < 3; i++ {
		if _, err := c.AddBulk(p); err != nil {
			t.Fatalf("AddBulk: %v", err)
		}
	}
	line := c.Lines()[0]
	if line.Qty != 3 || !line.LineTotal.Equal(dec("45.00")) {
		t.Fatalf("line = qty %d total %s, want qty 3 total 45.00", line.Qty, line.LineTotal)
	}

	line, ok := c.RemoveBulk(p.ID)
	if !ok || line.Qty != 2 || !line.LineTotal.Equal(dec("30.00")) {
		t.Fatalf("after remove: ok=%v qty=%d total=%s", ok, line.Qty, line.LineTotal)
	}

	c.RemoveBulk(p.ID)
	if _, ok := c.RemoveBulk(p.ID); ok {
		t.Fatal("expected line to be dropped at zero")
	}
	if len(c.Lines()) != 0 {
		t.Fatal("expected empty cart")
	}
}

func TestAddBulkRejectsUnitTracked(t *testing.T) {
	c := New()
	p := trackedProduct("iPhone 13")
	if _, err := c.AddBulk(p); err == nil {
		t.Fatal("unit-tracked product accepted by AddBulk")
	}
}

func TestRemoveLineReturnsUnitIDs(t *testing.T) {
	c := New()
	p := trackedProduct("iPhone 13")
	u1 := unitFor(p, "100000000000001", "200.00")
	u2 := unitFor(p, "100000000000002", "300.00")
	if _, err := c.AddUnits(p, []models.InventoryUnit{u1, u2}); err != nil {
		t.Fatalf("AddUnits: %v", err)
	}

	ids := c.RemoveLine(p.ID)
	if len(ids) != 2 || ids[0] != u1.ID || ids[1] != u2.ID {
		t.Fatalf("RemoveLine ids = %v", ids)
	}
	if len(c.Lines()) != 0 {
		t.Fatal("expected empty cart after RemoveLine")
	}
}
