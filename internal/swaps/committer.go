package swaps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/internal/credit"
	"github.com/rmoralesc/movilpos-backend/internal/inventory"
	"github.com/rmoralesc/movilpos-backend/internal/pricing"
	"github.com/rmoralesc/movilpos-backend/internal/sales"
	"github.com/rmoralesc/movilpos-backend/internal/totals"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/metrics"
	"github.com/rmoralesc/movilpos-backend/pkg/pagination"
)

// InventoryStore is the slice of the inventory repository the swap committer
// needs: claiming the purchased device and taking in the traded one.
type InventoryStore interface {
	GetUnits(ctx context.Context, ids []uuid.UUID) ([]models.InventoryUnit, error)
	Claim(ctx context.Context, unitIDs []uuid.UUID, saleID uuid.UUID, customerID *uuid.UUID) error
	Intake(ctx context.Context, unit *models.InventoryUnit) error
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

// Catalog resolves and registers products, including the one created for a
// traded-in device.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByName(ctx context.Context, name string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	PatchCache(product models.Product)
}

// CreditLedger deducts the paid difference when the customer pays with
// store credit.
type CreditLedger interface {
	Deduct(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, ref credit.Ref) (*models.CreditEntry, error)
}

// TradeIn describes the device the customer surrenders.
type TradeIn struct {
	Description string
	Serial      string
	Condition   enums.UnitCondition
	Value       decimal.Decimal
	ResalePrice *decimal.Decimal
}

// Draft is a swap before it is committed.
type Draft struct {
	CustomerID         *uuid.UUID
	CustomerName       string
	CustomerPhone      *string
	PurchasedProductID uuid.UUID
	PurchasedUnitID    *uuid.UUID
	TradeIn            TradeIn
	PaymentMethod      enums.PaymentMethod
	CashierID          uuid.UUID
}

// Result carries the durable swap and any reconcile warnings.
type Result struct {
	Swap     *models.Swap      `json:"swap"`
	State    sales.CommitState `json:"state"`
	Warnings []sales.Warning   `json:"warnings,omitempty"`
}

// Committer runs the swap commit pipeline.
type Committer struct {
	repo      Repository
	inventory InventoryStore
	catalog   Catalog
	ledger    CreditLedger
	log       *logger.Logger
	metrics   *metrics.POSMetrics
}

// NewCommitter wires the swap committer.
func NewCommitter(repo Repository, inventory InventoryStore, catalog Catalog, ledger CreditLedger, log *logger.Logger, m *metrics.POSMetrics) (*Committer, error) {
	if repo == nil || inventory == nil || catalog == nil || ledger == nil {
		return nil, errors.New("swaps: repo, inventory, catalog, and ledger are all required")
	}
	if log == nil {
		return nil, errors.New("swaps: logger is required")
	}
	return &Committer{
		repo:      repo,
		inventory: inventory,
		catalog:   catalog,
		ledger:    ledger,
		log:       log,
		metrics:   m,
	}, nil
}

// Commit validates, persists, and reconciles a trade-in transaction. Like a
// sale, failures after the swap row exists surface as warnings.
func (c *Committer) Commit(ctx context.Context, draft Draft) (*Result, error) {
	started := time.Now()
	defer func() { c.metrics.ObserveCommitDuration("swap", time.Since(started)) }()

	serial, err := c.validate(draft)
	if err != nil {
		c.metrics.IncCommitFailure("swap")
		return nil, err
	}

	product, unit, price, err := c.resolvePurchase(ctx, draft)
	if err != nil {
		c.metrics.IncCommitFailure("swap")
		return nil, err
	}
	if draft.TradeIn.Value.GreaterThan(price) {
		c.metrics.IncCommitFailure("swap")
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("trade-in value %s exceeds the purchase price %s", draft.TradeIn.Value, price))
	}

	swap := buildSwap(draft, product, unit, price, serial)
	if err := c.repo.Create(ctx, swap); err != nil {
		c.metrics.IncCommitFailure("swap")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting swap")
	}

	ctx = c.log.WithField(ctx, "swap_id", swap.ID.String())
	c.log.Info(ctx, "swap persisted")

	result := &Result{Swap: swap, State: sales.StatePersisted}
	c.reconcile(ctx, result, draft, product, serial)
	c.report(ctx, result)
	return result, nil
}

// Get returns a persisted swap.
func (c *Committer) Get(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	return c.repo.Get(ctx, id)
}

// List returns a page of swaps, newest first.
func (c *Committer) List(ctx context.Context, params pagination.Params) ([]models.Swap, string, error) {
	return c.repo.List(ctx, params)
}

func (c *Committer) validate(draft Draft) (string, error) {
	if strings.TrimSpace(draft.CustomerName) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if draft.PurchasedProductID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "a purchased product must be chosen")
	}
	if strings.TrimSpace(draft.TradeIn.Description) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "trade-in description is required")
	}
	if !draft.TradeIn.Condition.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown trade-in condition")
	}
	if draft.TradeIn.Value.IsNegative() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "trade-in value cannot be negative")
	}
	if !draft.PaymentMethod.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if draft.PaymentMethod == enums.PaymentMethodCredit && draft.CustomerID == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "paying with store credit requires a customer")
	}
	if draft.CashierID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cashier identity is required")
	}
	return inventory.NormalizeIMEI(draft.TradeIn.Serial)
}

// resolvePurchase loads what is being bought and prices it with the same
// resolver the display path uses.
func (c *Committer) resolvePurchase(ctx context.Context, draft Draft) (*models.Product, *models.InventoryUnit, decimal.Decimal, error) {
	product, err := c.catalog.Get(ctx, draft.PurchasedProductID)
	if err != nil {
		return nil, nil, decimal.Zero, err
	}

	var unit *models.InventoryUnit
	if product.UnitTracked() {
		if draft.PurchasedUnitID == nil {
			return nil, nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is unit-tracked; select the unit being sold", product.Name))
		}
		units, err := c.inventory.GetUnits(ctx, []uuid.UUID{*draft.PurchasedUnitID})
		if err != nil {
			return nil, nil, decimal.Zero, err
		}
		if units[0].ProductID != product.ID {
			return nil, nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				"selected unit does not belong to the purchased product")
		}
		unit = &units[0]
	}

	return product, unit, pricing.Resolve(*product, unit), nil
}

func buildSwap(draft Draft, product *models.Product, unit *models.InventoryUnit, price decimal.Decimal, serial string) *models.Swap {
	swap := &models.Swap{
		CustomerID:         draft.CustomerID,
		CustomerName:       strings.TrimSpace(draft.CustomerName),
		CustomerPhone:      draft.CustomerPhone,
		PurchasedProductID: product.ID,
		PurchasePrice:      price,
		TradeInDescription: strings.TrimSpace(draft.TradeIn.Description),
		TradeInSerial:      serial,
		TradeInCondition:   draft.TradeIn.Condition,
		TradeInValue:       draft.TradeIn.Value,
		TradeInResalePrice: draft.TradeIn.ResalePrice,
		DifferencePaid:     totals.SwapDifference(price, draft.TradeIn.Value),
		PaymentMethod:      draft.PaymentMethod,
		Status:             enums.TransactionStatusCompleted,
		CashierID:          draft.CashierID,
	}
	if unit != nil {
		swap.PurchasedUnitID = &unit.ID
		swap.PurchasedSerial = &unit.IMEI
	}
	return swap
}

func (c *Committer) reconcile(ctx context.Context, result *Result, draft Draft, product *models.Product, serial string) {
	swap := result.Swap

	clean := true
	var err error
	if swap.PurchasedUnitID != nil {
		err = c.inventory.Claim(ctx, []uuid.UUID{*swap.PurchasedUnitID}, swap.ID, swap.CustomerID)
	} else {
		err = c.inventory.DecrementStock(ctx, product.ID, 1)
	}
	if err != nil {
		clean = false
		result.Warnings = append(result.Warnings, sales.Warning{
			Step:    sales.StepInventory,
			Message: warningMessage(err),
		})
	}

	if err := c.intakeTradeIn(ctx, swap, serial); err != nil {
		clean = false
		result.Warnings = append(result.Warnings, sales.Warning{
			Step:    sales.StepInventory,
			Message: warningMessage(err),
		})
	}
	if clean {
		result.State = sales.StateInventoryReconciled
	}

	if swap.PaymentMethod == enums.PaymentMethodCredit && swap.DifferencePaid.IsPositive() && swap.CustomerID != nil {
		_, err := c.ledger.Deduct(ctx, *swap.CustomerID, swap.DifferencePaid, credit.Ref{SwapID: &swap.ID})
		if err != nil {
			clean = false
			result.Warnings = append(result.Warnings, sales.Warning{
				Step:    sales.StepCredit,
				Message: warningMessage(err),
			})
		} else if clean {
			result.State = sales.StateCreditReconciled
		}
	}

	if !product.UnitTracked() {
		if fresh, err := c.catalog.Get(ctx, product.ID); err == nil {
			c.catalog.PatchCache(*fresh)
		}
	}
	if len(result.Warnings) == 0 {
		result.State = sales.StateComplete
	}
}

// intakeTradeIn puts the surrendered device back on the shelf: reuse the
// product whose normalized name matches, or register a new unit-tracked one,
// then create the in-stock unit carrying the trade-in pricing.
func (c *Committer) intakeTradeIn(ctx context.Context, swap *models.Swap, serial string) error {
	name := swap.TradeInDescription
	product, err := c.catalog.FindActiveByName(ctx, name)
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		modelID := uuid.New()
		basePrice := swap.TradeInValue
		if swap.TradeInResalePrice != nil {
			basePrice = *swap.TradeInResalePrice
		}
		product, err = c.catalog.Create(ctx, &models.Product{
			Name:           name,
			BasePrice:      basePrice,
			ProductModelID: &modelID,
		})
	}
	if err != nil {
		return err
	}

	note := fmt.Sprintf("accepted as trade-in on %s", swap.Number)
	unit := &models.InventoryUnit{
		ProductID:    product.ID,
		IMEI:         serial,
		Status:       enums.UnitStatusInStock,
		Condition:    swap.TradeInCondition,
		SellingPrice: swap.TradeInResalePrice,
		PurchaseCost: &swap.TradeInValue,
		Note:         &note,
	}
	return c.inventory.Intake(ctx, unit)
}

func (c *Committer) report(ctx context.Context, result *Result) {
	if len(result.Warnings) == 0 {
		c.metrics.IncCommitSuccess("swap")
		c.log.Info(ctx, "swap commit complete")
		return
	}
	for _, w := range result.Warnings {
		c.metrics.IncCommitPartial("swap", string(w.Step))
	}
	warnCtx := c.log.WithField(ctx, "warnings", len(result.Warnings))
	c.log.Warn(warnCtx, "swap committed with reconcile warnings")
}

func warningMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
