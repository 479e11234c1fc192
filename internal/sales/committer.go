package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/internal/cart"
	"github.com/rmoralesc/movilpos-backend/internal/credit"
	"github.com/rmoralesc/movilpos-backend/internal/totals"
	"github.com/rmoralesc/movilpos-backend/pkg/config"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/metrics"
	"github.com/rmoralesc/movilpos-backend/pkg/pagination"
)

// InventoryStore is the slice of the inventory repository the committer
// drives during reconciliation.
type InventoryStore interface {
	Claim(ctx context.Context, unitIDs []uuid.UUID, saleID uuid.UUID, customerID *uuid.UUID) error
	Release(ctx context.Context, unitIDs []uuid.UUID) error
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error
}

// CreditLedger is the store-credit surface the committer reconciles against.
type CreditLedger interface {
	Balance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	Deduct(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, ref credit.Ref) (*models.CreditEntry, error)
	Restore(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, ref credit.Ref) (*models.CreditEntry, error)
	WithAccountLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error
}

// ProductCache lets the committer write stock changes through the read cache.
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	PatchCache(product models.Product)
}

// Draft is everything the cashier has assembled before committing.
type Draft struct {
	Lines           []cart.Line
	CustomerID      *uuid.UUID
	CashierID       uuid.UUID
	PaymentMethod   enums.PaymentMethod
	DiscountPercent decimal.Decimal
	TaxEnabled      bool
	RequestedCredit decimal.Decimal
	Notes           *string
}

// Result is what a commit hands back: the durable record, the final state,
// and any post-persistence warnings.
type Result struct {
	Sale     *models.Sale     `json:"sale"`
	Totals   totals.Breakdown `json:"totals"`
	State    CommitState      `json:"state"`
	Warnings []Warning        `json:"warnings,omitempty"`
}

// Committer runs the sale commit pipeline.
type Committer struct {
	repo      Repository
	inventory InventoryStore
	ledger    CreditLedger
	products  ProductCache
	log       *logger.Logger
	metrics   *metrics.POSMetrics
	taxRate   decimal.Decimal
}

// NewCommitter wires the sale committer.
func NewCommitter(repo Repository, inventory InventoryStore, ledger CreditLedger, products ProductCache, cfg config.SalesConfig, log *logger.Logger, m *metrics.POSMetrics) (*Committer, error) {
	if repo == nil || inventory == nil || ledger == nil || products == nil {
		return nil, errors.New("sales: repo, inventory, ledger, and products are all required")
	}
	if log == nil {
		return nil, errors.New("sales: logger is required")
	}
	return &Committer{
		repo:      repo,
		inventory: inventory,
		ledger:    ledger,
		products:  products,
		log:       log,
		metrics:   m,
		taxRate:   decimal.NewFromFloat(cfg.TaxRatePercent),
	}, nil
}

// Commit validates, persists, and reconciles a new sale. Errors before
// persistence abort; failures after it come back as warnings on the result.
func (c *Committer) Commit(ctx context.Context, draft Draft) (*Result, error) {
	started := time.Now()
	defer func() { c.metrics.ObserveCommitDuration("sale", time.Since(started)) }()

	if err := c.validate(draft); err != nil {
		c.metrics.IncCommitFailure("sale")
		return nil, err
	}

	breakdown, err := c.computeTotals(ctx, draft)
	if err != nil {
		c.metrics.IncCommitFailure("sale")
		return nil, err
	}

	sale := buildSale(draft, breakdown)
	if err := c.repo.Create(ctx, sale); err != nil {
		c.metrics.IncCommitFailure("sale")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting sale")
	}

	ctx = c.log.WithSaleID(ctx, sale.ID.String())
	c.log.Info(ctx, "sale persisted")

	result := &Result{Sale: sale, Totals: breakdown, State: StatePersisted}
	c.reconcile(ctx, result, draft)
	c.report(ctx, "sale", result)
	return result, nil
}

// Edit reverts the original sale's side effects, then re-runs the pipeline
// with the new draft against the same sale id and number. The original
// customer's credit lock covers the whole restore-then-deduct sequence.
func (c *Committer) Edit(ctx context.Context, saleID uuid.UUID, draft Draft) (*Result, error) {
	started := time.Now()
	defer func() { c.metrics.ObserveCommitDuration("sale_edit", time.Since(started)) }()

	original, err := c.repo.Get(ctx, saleID)
	if err != nil {
		c.metrics.IncCommitFailure("sale_edit")
		return nil, err
	}
	if err := c.validate(draft); err != nil {
		c.metrics.IncCommitFailure("sale_edit")
		return nil, err
	}

	var result *Result
	run := func(ctx context.Context) error {
		if err := c.revert(ctx, original); err != nil {
			return err
		}

		breakdown, err := c.computeTotals(ctx, draft)
		if err != nil {
			return err
		}

		updated := buildSale(draft, breakdown)
		updated.ID = original.ID
		updated.Number = original.Number
		updated.CreatedAt = original.CreatedAt
		if err := c.repo.Replace(ctx, updated); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rewriting sale")
		}

		result = &Result{Sale: updated, Totals: breakdown, State: StatePersisted}
		c.reconcile(ctx, result, draft)
		return nil
	}

	lockCustomer := original.CustomerID
	if lockCustomer == nil {
		lockCustomer = draft.CustomerID
	}
	ctx = c.log.WithSaleID(ctx, saleID.String())
	if lockCustomer != nil {
		err = c.ledger.WithAccountLock(ctx, *lockCustomer, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		c.metrics.IncCommitFailure("sale_edit")
		return nil, err
	}
	c.report(ctx, "sale_edit", result)
	return result, nil
}

// Get returns a persisted sale with its items.
func (c *Committer) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return c.repo.Get(ctx, id)
}

// List returns a page of sales, newest first.
func (c *Committer) List(ctx context.Context, params pagination.Params) ([]models.Sale, string, error) {
	return c.repo.List(ctx, params)
}

func (c *Committer) validate(draft Draft) error {
	if len(draft.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "a sale needs at least one line item")
	}
	if !draft.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if draft.CashierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cashier identity is required")
	}
	if draft.PaymentMethod == enums.PaymentMethodCredit && draft.CustomerID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "paying with store credit requires a customer")
	}
	if draft.RequestedCredit.IsPositive() && draft.CustomerID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "applying store credit requires a customer")
	}
	for _, line := range draft.Lines {
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %s has no quantity", line.ProductName))
		}
		if line.UnitTracked() && line.Qty != len(line.UnitIDs) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %s quantity does not match its selected units", line.ProductName))
		}
	}
	return nil
}

func (c *Committer) computeTotals(ctx context.Context, draft Draft) (totals.Breakdown, error) {
	available := decimal.Zero
	if draft.CustomerID != nil {
		balance, err := c.ledger.Balance(ctx, *draft.CustomerID)
		if err != nil {
			return totals.Breakdown{}, err
		}
		available = balance
	}
	taxRate := decimal.Zero
	if draft.TaxEnabled {
		taxRate = c.taxRate
	}
	return totals.Compute(draft.Lines, totals.Input{
		DiscountPercent: draft.DiscountPercent,
		TaxRatePercent:  taxRate,
		CreditRequested: draft.RequestedCredit,
		CreditAvailable: available,
	})
}

func buildSale(draft Draft, breakdown totals.Breakdown) *models.Sale {
	sale := &models.Sale{
		CustomerID:      draft.CustomerID,
		Subtotal:        breakdown.Subtotal,
		DiscountPercent: breakdown.DiscountPercent,
		DiscountAmount:  breakdown.DiscountAmount,
		TaxAmount:       breakdown.TaxAmount,
		Total:           breakdown.Total,
		CreditApplied:   breakdown.CreditApplied,
		CashNeeded:      breakdown.CashNeeded,
		PaymentMethod:   draft.PaymentMethod,
		Status:          enums.TransactionStatusCompleted,
		Notes:           draft.Notes,
		CashierID:       draft.CashierID,
	}
	for _, line := range draft.Lines {
		sale.Items = append(sale.Items, models.SaleLineItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Qty:         line.Qty,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			UnitIDs:     append([]uuid.UUID(nil), line.UnitIDs...),
			UnitSerials: append([]string(nil), line.UnitSerials...),
		})
	}
	return sale
}

// reconcile runs the post-persistence steps. Nothing in here returns an
// error to the caller; the sale record already exists and stays.
func (c *Committer) reconcile(ctx context.Context, result *Result, draft Draft) {
	sale := result.Sale

	inventoryClean := true
	for _, line := range draft.Lines {
		var err error
		if line.UnitTracked() {
			err = c.inventory.Claim(ctx, line.UnitIDs, sale.ID, sale.CustomerID)
		} else {
			err = c.inventory.DecrementStock(ctx, line.ProductID, line.Qty)
		}
		if err != nil {
			inventoryClean = false
			result.Warnings = append(result.Warnings, Warning{
				Step:    StepInventory,
				Message: fmt.Sprintf("line %s: %s", line.ProductName, warningMessage(err)),
			})
		}
	}
	if inventoryClean {
		result.State = StateInventoryReconciled
	}

	creditClean := true
	if sale.CreditApplied.IsPositive() && sale.CustomerID != nil {
		_, err := c.ledger.Deduct(ctx, *sale.CustomerID, sale.CreditApplied, credit.Ref{SaleID: &sale.ID})
		if err != nil {
			creditClean = false
			result.Warnings = append(result.Warnings, Warning{
				Step:    StepCredit,
				Message: warningMessage(err),
			})
		}
	}
	if inventoryClean && creditClean {
		result.State = StateCreditReconciled
	}

	c.patchCache(ctx, draft)
	if len(result.Warnings) == 0 {
		result.State = StateComplete
	}
}

// revert undoes the original sale's inventory and credit effects ahead of an
// edit. Unlike reconcile, failures here abort: nothing has been rewritten
// yet, so the original record is still intact.
func (c *Committer) revert(ctx context.Context, original *models.Sale) error {
	for _, item := range original.Items {
		if len(item.UnitIDs) > 0 {
			if err := c.inventory.Release(ctx, item.UnitIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "releasing original units")
			}
			continue
		}
		if err := c.inventory.RestoreStock(ctx, item.ProductID, item.Qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restoring original stock")
		}
	}
	if original.CreditApplied.IsPositive() && original.CustomerID != nil {
		_, err := c.ledger.Restore(ctx, *original.CustomerID, original.CreditApplied, credit.Ref{SaleID: &original.ID})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Committer) patchCache(ctx context.Context, draft Draft) {
	for _, line := range draft.Lines {
		if line.UnitTracked() {
			continue
		}
		product, err := c.products.Get(ctx, line.ProductID)
		if err != nil {
			continue
		}
		c.products.PatchCache(*product)
	}
}

func (c *Committer) report(ctx context.Context, kind string, result *Result) {
	if len(result.Warnings) == 0 {
		c.metrics.IncCommitSuccess(kind)
		c.log.Info(ctx, "sale commit complete")
		return
	}
	for _, w := range result.Warnings {
		c.metrics.IncCommitPartial(kind, string(w.Step))
	}
	warnCtx := c.log.WithField(ctx, "warnings", len(result.Warnings))
	c.log.Warn(warnCtx, "sale committed with reconcile warnings")
}

func warningMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
