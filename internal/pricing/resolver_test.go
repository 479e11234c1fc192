package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func simPtr(s enums.SimType) *enums.SimType {
	return &s
}

func TestResolvePriorityChain(t *testing.T) {
	product := models.Product{
		BasePrice:        dec("30"),
		NewPrice:         decPtr("40"),
		UsedPrice:        decPtr("25"),
		PhysicalSimPrice: decPtr("32"),
		ESimPrice:        decPtr("35"),
	}

	tests := []struct {
		name string
		unit *models.InventoryUnit
		want string
	}{
		{
			name: "override wins over condition tier",
			unit: &models.InventoryUnit{
				SellingPrice: decPtr("50"),
				Condition:    enums.UnitConditionNew,
			},
			want: "50",
		},
		{
			name: "zero override falls through",
			unit: &models.InventoryUnit{
				SellingPrice: decPtr("0"),
				Condition:    enums.UnitConditionNew,
			},
			want: "40",
		},
		{
			name: "new condition tier",
			unit: &models.InventoryUnit{Condition: enums.UnitConditionNew},
			want: "40",
		},
		{
			name: "used condition tier",
			unit: &models.InventoryUnit{Condition: enums.UnitConditionUsed},
			want: "25",
		},
		{
			name: "refurbished has no tier, physical sim applies",
			unit: &models.InventoryUnit{
				Condition: enums.UnitConditionRefurbished,
				SimType:   simPtr(enums.SimTypePhysical),
			},
			want: "32",
		},
		{
			name: "esim tier",
			unit: &models.InventoryUnit{
				Condition: enums.UnitConditionRefurbished,
				SimType:   simPtr(enums.SimTypeESim),
			},
			want: "35",
		},
		{
			name: "base price fallback",
			unit: &models.InventoryUnit{Condition: enums.UnitConditionRefurbished},
			want: "30",
		},
		{
			name: "nil unit uses base price",
			unit: nil,
			want: "30",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(product, tc.unit)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("Resolve = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestResolveMissingTiersFallThrough(t *testing.T) {
	product := models.Product{BasePrice: dec("99")}
	unit := &models.InventoryUnit{
		Condition: enums.UnitConditionNew,
		SimType:   simPtr(enums.SimTypeESim),
	}
	if got := Resolve(product, unit); !got.Equal(dec("99")) {
		t.Fatalf("expected base price, got %s", got)
	}
}

func TestResolveDeterministic(t *testing.T) {
	product := models.Product{BasePrice: dec("30"), UsedPrice: decPtr("25")}
	unit := &models.InventoryUnit{Condition: enums.UnitConditionUsed}

	first := Resolve(product, unit)
	for i := 0; i < 10; i++ {
		if got := Resolve(product, unit); !got.Equal(first) {
			t.Fatalf("resolution changed between calls: %s vs %s", got, first)
		}
	}
}
