package totals

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/internal/cart"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func linesTotaling(amounts ...string) []cart.Line {
	lines := make([]cart.Line, 0, len(amounts))
	for _, a := range amounts {
		lines = append(lines, cart.Line{Qty: 1, LineTotal: dec(a)})
	}
	return lines
}

func TestComputePipeline(t *testing.T) {
	b, err := Compute(linesTotaling("300.00", "100.00"), Input{
		DiscountPercent: dec("10"),
		TaxRatePercent:  dec("16"),
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// 400 - 10% = 360; tax 16% of 360 = 57.60; total 417.60.
	if !b.Subtotal.Equal(dec("400.00")) {
		t.Errorf("subtotal = %s, want 400.00", b.Subtotal)
	}
	if !b.DiscountAmount.Equal(dec("40.00")) {
		t.Errorf("discount = %s, want 40.00", b.DiscountAmount)
	}
	if !b.TaxAmount.Equal(dec("57.60")) {
		t.Errorf("tax = %s, want 57.60", b.TaxAmount)
	}
	if !b.Total.Equal(dec("417.60")) {
		t.Errorf("total = %s, want 417.60", b.Total)
	}
	if !b.CashNeeded.Equal(b.Total) {
		t.Errorf("cash needed = %s, want total with no credit", b.CashNeeded)
	}
}

func TestComputeCreditClamp(t *testing.T) {
	tests := []struct {
		name        string
		requested   string
		available   string
		wantApplied string
		wantCash    string
	}{
		{"within balance and total", "50.00", "80.00", "50.00", "150.00"},
		{"clamped to balance", "120.00", "80.00", "80.00", "120.00"},
		{"clamped to total", "500.00", "500.00", "200.00", "0.00"},
		{"no balance", "50.00", "0.00", "0.00", "200.00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Compute(linesTotaling("200.00"), Input{
				CreditRequested: dec(tc.requested),
				CreditAvailable: dec(tc.available),
			})
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !b.CreditApplied.Equal(dec(tc.wantApplied)) {
				t.Errorf("credit applied = %s, want %s", b.CreditApplied, tc.wantApplied)
			}
			if !b.CashNeeded.Equal(dec(tc.wantCash)) {
				t.Errorf("cash needed = %s, want %s", b.CashNeeded, tc.wantCash)
			}
			if b.CashNeeded.IsNegative() {
				t.Error("cash needed went negative")
			}
		})
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	cases := []Input{
		{DiscountPercent: dec("-1")},
		{DiscountPercent: dec("101")},
		{CreditRequested: dec("-5")},
		{TaxRatePercent: dec("-2")},
	}
	for _, in := range cases {
		if _, err := Compute(linesTotaling("100.00"), in); pkgerrors.As(err) == nil {
			t.Errorf("input %+v: expected validation error, got %v", in, err)
		}
	}
}

func TestComputeEmptyCart(t *testing.T) {
	b, err := Compute(nil, Input{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !b.Total.IsZero() || !b.CashNeeded.IsZero() {
		t.Fatalf("empty cart: total=%s cash=%s, want zero", b.Total, b.CashNeeded)
	}
}

func TestSwapDifference(t *testing.T) {
	if got := SwapDifference(dec("500.00"), dec("300.00")); !got.Equal(dec("200.00")) {
		t.Errorf("difference = %s, want 200.00", got)
	}
	if got := SwapDifference(dec("300.00"), dec("450.00")); !got.IsZero() {
		t.Errorf("trade-in above purchase: difference = %s, want 0", got)
	}
}
