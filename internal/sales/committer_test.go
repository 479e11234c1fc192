package sales

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesc/movilpos-backend/internal/cart"
	"github.com/rmoralesc/movilpos-backend/internal/credit"
	"github.com/rmoralesc/movilpos-backend/pkg/config"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/pagination"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeSalesRepo struct {
	sales    map[uuid.UUID]*models.Sale
	replaced int
}

func newFakeSalesRepo() *fakeSalesRepo {
	return &fakeSalesRepo{sales: make(map[uuid.UUID]*models.Sale)}
}

func (f *fakeSalesRepo) Create(_ context.Context, sale *models.Sale) error {
	sale.ID = uuid.New()
	sale.Number = "S-20260301-TEST01"
	for i := range sale.Items {
		sale.Items[i].ID = uuid.New()
		sale.Items[i].SaleID = sale.ID
	}
	stored := *sale
	f.sales[sale.ID] = &stored
	return nil
}

func (f *fakeSalesRepo) Replace(_ context.Context, sale *models.Sale) error {
	if _, ok := f.sales[sale.ID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	stored := *sale
	f.sales[sale.ID] = &stored
	f.replaced++
	return nil
}

func (f *fakeSalesRepo) Get(_ context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, ok := f.sales[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	copied := *sale
	return &copied, nil
}

func (f *fakeSalesRepo) List(context.Context, pagination.Params) ([]models.Sale, string, error) {
	return nil, "", nil
}

func (f *fakeSalesRepo) WithTx(*gorm.DB) Repository { return f }

type fakeInventory struct {
	claimed   [][]uuid.UUID
	released  [][]uuid.UUID
	decrement map[uuid.UUID]int
	restored  map[uuid.UUID]int
	claimErr  error
	stockErr  error
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		decrement: make(map[uuid.UUID]int),
		restored:  make(map[uuid.UUID]int),
	}
}

func (f *fakeInventory) Claim(_ context.Context, unitIDs []uuid.UUID, _ uuid.UUID, _ *uuid.UUID) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	f.claimed = append(f.claimed, unitIDs)
	return nil
}

func (f *fakeInventory) Release(_ context.Context, unitIDs []uuid.UUID) error {
	f.released = append(f.released, unitIDs)
	return nil
}

func (f *fakeInventory) DecrementStock(_ context.Context, productID uuid.UUID, qty int) error {
	if f.stockErr != nil {
		return f.stockErr
	}
	f.decrement[productID] += qty
	return nil
}

func (f *fakeInventory) RestoreStock(_ context.Context, productID uuid.UUID, qty int) error {
	f.restored[productID] += qty
	return nil
}

type ledgerOp struct {
	kind   string
	amount decimal.Decimal
}

type fakeLedger struct {
	balances  map[uuid.UUID]decimal.Decimal
	ops       []ledgerOp
	deductErr error
	locked    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[uuid.UUID]decimal.Decimal)}
}

func (f *fakeLedger) Balance(_ context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	if b, ok := f.balances[customerID]; ok {
		return b, nil
	}
	return decimal.Zero, nil
}

func (f *fakeLedger) Deduct(_ context.Context, customerID uuid.UUID, amount decimal.Decimal, _ credit.Ref) (*models.CreditEntry, error) {
	if f.deductErr != nil {
		return nil, f.deductErr
	}
	f.balances[customerID] = f.balances[customerID].Sub(amount)
	f.ops = append(f.ops, ledgerOp{kind: "deduct", amount: amount})
	return &models.CreditEntry{}, nil
}

func (f *fakeLedger) Restore(_ context.Context, customerID uuid.UUID, amount decimal.Decimal, _ credit.Ref) (*models.CreditEntry, error) {
	f.balances[customerID] = f.balances[customerID].Add(amount)
	f.ops = append(f.ops, ledgerOp{kind: "restore", amount: amount})
	return &models.CreditEntry{}, nil
}

func (f *fakeLedger) WithAccountLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	f.locked++
	return fn(ctx)
}

type fakeProducts struct {
	products map[uuid.UUID]models.Product
	patched  []uuid.UUID
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: make(map[uuid.UUID]models.Product)}
}

func (f *fakeProducts) Get(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func (f *fakeProducts) PatchCache(p models.Product) {
	f.patched = append(f.patched, p.ID)
}

type committerFixture struct {
	committer *Committer
	repo      *fakeSalesRepo
	inventory *fakeInventory
	ledger    *fakeLedger
	products  *fakeProducts
}

func newCommitterFixture(t *testing.T) *committerFixture {
	t.Helper()
	f := &committerFixture{
		repo:      newFakeSalesRepo(),
		inventory: newFakeInventory(),
		ledger:    newFakeLedger(),
		products:  newFakeProducts(),
	}
	log := logger.New(logger.Options{ServiceName: "sales-test", Output: io.Discard})
	committer, err := NewCommitter(f.repo, f.inventory, f.ledger, f.products,
		config.SalesConfig{TaxRatePercent: 16}, log, nil)
	if err != nil {
		t.Fatalf("NewCommitter: %v", err)
	}
	f.committer = committer
	return f
}

func unitLine(qty int, total string) cart.Line {
	ids := make([]uuid.UUID, qty)
	serials := make([]string, qty)
	for i := range ids {
		ids[i] = uuid.New()
		serials[i] = uuid.NewString()[:15]
	}
	lineTotal := dec(total)
	return cart.Line{
		ProductID:   uuid.New(),
		ProductName: "iPhone 13",
		Qty:         qty,
		UnitPrice:   lineTotal.DivRound(decimal.NewFromInt(int64(qty)), 2),
		LineTotal:   lineTotal,
		UnitIDs:     ids,
		UnitSerials: serials,
	}
}

func bulkLine(qty int, unitPrice string) cart.Line {
	price := dec(unitPrice)
	return cart.Line{
		ProductID:   uuid.New(),
		ProductName: "USB-C cable",
		Qty:         qty,
		UnitPrice:   price,
		LineTotal:   price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestCommitHappyPath(t *testing.T) {
	f := newCommitterFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.ledger.balances[customerID] = dec("100.00")

	line := unitLine(2, "600.00")
	bulk := bulkLine(3, "15.00")
	f.products.products[bulk.ProductID] = models.Product{ID: bulk.ProductID, IsActive: true}

	result, err := f.committer.Commit(ctx, Draft{
		Lines:           []cart.Line{line, bulk},
		CustomerID:      &customerID,
		CashierID:       uuid.New(),
		PaymentMethod:   enums.PaymentMethodCash,
		RequestedCredit: dec("250.00"), // clamped to the 100.00 balance
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if result.State != StateComplete || len(result.Warnings) != 0 {
		t.Fatalf("state = %s warnings = %v, want complete/none", result.State, result.Warnings)
	}
	if result.Sale.Number == "" || result.Sale.ID == uuid.Nil {
		t.Fatal("persisted sale must carry id and number")
	}
	if !result.Totals.Subtotal.Equal(dec("645.00")) {
		t.Fatalf("subtotal = %s, want 645.00", result.Totals.Subtotal)
	}
	if !result.Totals.CreditApplied.Equal(dec("100.00")) {
		t.Fatalf("credit applied = %s, want clamp to balance", result.Totals.CreditApplied)
	}
	if len(f.inventory.claimed) != 1 || len(f.inventory.claimed[0]) != 2 {
		t.Fatalf("claimed = %v, want the two selected units", f.inventory.claimed)
	}
	if f.inventory.decrement[bulk.ProductID] != 3 {
		t.Fatalf("decrement = %v, want 3 for the bulk product", f.inventory.decrement)
	}
	if len(f.ledger.ops) != 1 || f.ledger.ops[0].kind != "deduct" {
		t.Fatalf("ledger ops = %v, want one deduct", f.ledger.ops)
	}
	if len(f.products.patched) != 1 || f.products.patched[0] != bulk.ProductID {
		t.Fatalf("cache patched = %v, want the bulk product", f.products.patched)
	}
}

func TestCommitValidation(t *testing.T) {
	f := newCommitterFixture(t)
	ctx := context.Background()
	cashier := uuid.New()

	cases := []struct {
		name  string
		draft Draft
	}{
		{"no lines", Draft{CashierID: cashier, PaymentMethod: enums.PaymentMethodCash}},
		{"credit without customer", Draft{
			Lines: []cart.Line{bulkLine(1, "10.00")}, CashierID: cashier,
			PaymentMethod: enums.PaymentMethodCredit,
		}},
		{"requested credit without customer", Draft{
			Lines: []cart.Line{bulkLine(1, "10.00")}, CashierID: cashier,
			PaymentMethod: enums.PaymentMethodCash, RequestedCredit: dec("5.00"),
		}},
		{"unit count mismatch", Draft{
			Lines: []cart.Line{{
				ProductID: uuid.New(), ProductName: "iPhone", Qty: 2,
				UnitIDs: []uuid.UUID{uuid.New()}, LineTotal: dec("100.00"), UnitPrice: dec("50.00"),
			}},
			CashierID: cashier, PaymentMethod: enums.PaymentMethodCash,
		}},
		{"no cashier", Draft{
			Lines: []cart.Line{bulkLine(1, "10.00")}, PaymentMethod: enums.PaymentMethodCash,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.committer.Commit(ctx, tc.draft)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("got %v, want validation error", err)
			}
			if len(f.repo.sales) != 0 {
				t.Fatal("validation failure must not persist anything")
			}
		})
	}
}

func TestCommitInventoryConflictBecomesWarning(t *testing.T) {
	f := newCommitterFixture(t)
	ctx := context.Background()
	f.inventory.claimErr = pkgerrors.New(pkgerrors.CodeConflict, "units no longer available")

	result, err := f.committer.Commit(ctx, Draft{
		Lines:         []cart.Line{unitLine(1, "300.00")},
		CashierID:     uuid.New(),
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(result.Warnings) != 1 || result.Warnings[0].Step != StepInventory {
		t.Fatalf("warnings = %v, want one inventory warning", result.Warnings)
	}
	if result.State == StateComplete {
		t.Fatal("partial commit must not report complete")
	}
	if len(f.repo.sales) != 1 {
		t.Fatal("sale record must survive the reconcile failure")
	}
}

func TestCommitCreditFailureBecomesWarning(t *testing.T) {
	f := newCommitterFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.ledger.balances[customerID] = dec("50.00")
	f.ledger.deductErr = pkgerrors.New(pkgerrors.CodeInsufficientCredit, "balance moved")

	result, err := f.committer.Commit(ctx, Draft{
		Lines:           []cart.Line{bulkLine(1, "80.00")},
		CustomerID:      &customerID,
		CashierID:       uuid.New(),
		PaymentMethod:   enums.PaymentMethodCash,
		RequestedCredit: dec("50.00"),
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Step != StepCredit {
		t.Fatalf("warnings = %v, want one credit warning", result.Warnings)
	}
	if len(f.repo.sales) != 1 {
		t.Fatal("sale record must survive the credit failure")
	}
}

func TestCommitTaxOnlyWhenEnabled(t *testing.T) {
	f := newCommitterFixture(t)
	ctx := context.Background()

	noTax, err := f.committer.Commit(ctx, Draft{
		Lines:         []cart.Line{bulkLine(1, "100.00")},
		CashierID:     uuid.New(),
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !noTax.Totals.TaxAmount.IsZero() {
		t.Fatalf("tax = %s, want zero when disabled", noTax.Totals.TaxAmount)
	}

	taxed, err := f.committer.Commit(ctx, Draft{
		Lines:         []cart.Line{bulkLine(1, "100.00")},
		CashierID:     uuid.New(),
		PaymentMethod: enums.PaymentMethodCash,
		TaxEnabled:    true,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !taxed.Totals.TaxAmount.Equal(dec("16.00")) {
		t.Fatalf("tax = %s, want 16.00 at the configured rate", taxed.Totals.TaxAmount)
	}
}

func TestEditRevertsThenReapplies(t *testing.T) {
	f := newCommitterFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.ledger.balances[customerID] = dec("100.00")

	originalLine := unitLine(1, "300.00")
	original, err := f.committer.Commit(ctx, Draft{
		Lines:           []cart.Line{originalLine},
		CustomerID:      &customerID,
		CashierID:       uuid.New(),
		PaymentMethod:   enums.PaymentMethodCash,
		RequestedCredit: dec("60.00"),
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !f.ledger.balances[customerID].Equal(dec("40.00")) {
		t.Fatalf("balance after commit = %s, want 40.00", f.ledger.balances[customerID])
	}

	newLine := unitLine(1, "200.00")
	edited, err := f.committer.Edit(ctx, original.Sale.ID, Draft{
		Lines:           []cart.Line{newLine},
		CustomerID:      &customerID,
		CashierID:       original.Sale.CashierID,
		PaymentMethod:   enums.PaymentMethodCash,
		RequestedCredit: dec("30.00"),
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if edited.Sale.ID != original.Sale.ID || edited.Sale.Number != original.Sale.Number {
		t.Fatal("edit must keep the sale id and number")
	}
	if len(f.inventory.released) != 1 {
		t.Fatalf("released = %v, want original units released once", f.inventory.released)
	}
	if f.inventory.released[0][0] != originalLine.UnitIDs[0] {
		t.Fatal("released the wrong unit")
	}
	if len(f.inventory.claimed) != 2 || f.inventory.claimed[1][0] != newLine.UnitIDs[0] {
		t.Fatal("new unit was not claimed")
	}
	// restore 60, then deduct 30 against the restored balance.
	if !f.ledger.balances[customerID].Equal(dec("70.00")) {
		t.Fatalf("balance after edit = %s, want 70.00", f.ledger.balances[customerID])
	}
	if f.ledger.locked != 1 {
		t.Fatalf("lock acquisitions = %d, want the edit under one customer lock", f.ledger.locked)
	}
	if f.repo.replaced != 1 {
		t.Fatalf("replaced = %d, want 1", f.repo.replaced)
	}
	if !edited.Totals.CreditApplied.Equal(dec("30.00")) {
		t.Fatalf("edited credit = %s, want 30.00", edited.Totals.CreditApplied)
	}
}

func TestEditRestoresBulkStock(t *testing.T) {
	f := newCommitterFixture(t)
	ctx := context.Background()

	bulk := bulkLine(4, "10.00")
	original, err := f.committer.Commit(ctx, Draft{
		Lines:         []cart.Line{bulk},
		CashierID:     uuid.New(),
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	_, err = f.committer.Edit(ctx, original.Sale.ID, Draft{
		Lines:         []cart.Line{bulkLine(2, "10.00")},
		CashierID:     original.Sale.CashierID,
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if f.inventory.restored[bulk.ProductID] != 4 {
		t.Fatalf("restored = %v, want the original quantity back", f.inventory.restored)
	}
}

func TestEditUnknownSale(t *testing.T) {
	f := newCommitterFixture(t)
	_, err := f.committer.Edit(context.Background(), uuid.New(), Draft{
		Lines:         []cart.Line{bulkLine(1, "10.00")},
		CashierID:     uuid.New(),
		PaymentMethod: enums.PaymentMethodCash,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("got %v, want not found", err)
	}
}
