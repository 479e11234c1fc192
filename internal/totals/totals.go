package totals

import (
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/internal/cart"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Input carries everything the calculator needs besides the cart lines.
// Discount is a percentage in [0,100]; CreditAvailable is the customer's
// current balance (zero when no customer is attached).
type Input struct {
	DiscountPercent decimal.Decimal
	TaxRatePercent  decimal.Decimal
	CreditRequested decimal.Decimal
	CreditAvailable decimal.Decimal
}

// Breakdown is the full money decomposition of a sale. CreditApplied is
// clamped so it never exceeds the available balance nor the amount owed, so
// CashNeeded is never negative.
type Breakdown struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	CreditApplied   decimal.Decimal `json:"credit_applied"`
	CashNeeded      decimal.Decimal `json:"cash_needed"`
}

// Compute derives the breakdown for the given lines. The pipeline is
// subtotal -> discount -> tax -> credit clamp; each money step rounds to
// cents before feeding the next.
func Compute(lines []cart.Line, in Input) (Breakdown, error) {
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	if in.CreditRequested.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "credit applied cannot be negative")
	}
	if in.TaxRatePercent.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate cannot be negative")
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	subtotal = subtotal.Round(2)

	discount := subtotal.Mul(in.DiscountPercent).Div(hundred).Round(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(in.TaxRatePercent).Div(hundred).Round(2)
	total := taxable.Add(tax)

	credit := in.CreditRequested
	if credit.GreaterThan(in.CreditAvailable) {
		credit = in.CreditAvailable
	}
	if credit.GreaterThan(total) {
		credit = total
	}
	if credit.IsNegative() {
		credit = decimal.Zero
	}

	return Breakdown{
		Subtotal:        subtotal,
		DiscountPercent: in.DiscountPercent,
		DiscountAmount:  discount,
		TaxAmount:       tax,
		Total:           total,
		CreditApplied:   credit,
		CashNeeded:      total.Sub(credit),
	}, nil
}

// SwapDifference is what the customer pays on a swap: the purchased price
// minus the trade-in value, floored at zero. The shop does not pay out when
// the trade-in is worth more than the purchase.
func SwapDifference(purchasePrice, tradeInValue decimal.Decimal) decimal.Decimal {
	diff := purchasePrice.Sub(tradeInValue)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}
