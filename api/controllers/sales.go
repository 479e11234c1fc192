package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/api/middleware"
	"github.com/rmoralesc/movilpos-backend/api/responses"
	"github.com/rmoralesc/movilpos-backend/api/validators"
	"github.com/rmoralesc/movilpos-backend/internal/cart"
	"github.com/rmoralesc/movilpos-backend/internal/catalog"
	"github.com/rmoralesc/movilpos-backend/internal/inventory"
	"github.com/rmoralesc/movilpos-backend/internal/sales"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
)

type saleLineRequest struct {
	ProductID string   `json:"product_id" validate:"required,uuid"`
	UnitIDs   []string `json:"unit_ids,omitempty" validate:"omitempty,dive,uuid"`
	Qty       int      `json:"qty,omitempty" validate:"omitempty,min=1"`
}

type saleRequest struct {
	CustomerID      *string           `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	Lines           []saleLineRequest `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod   string            `json:"payment_method" validate:"required"`
	DiscountPercent decimal.Decimal   `json:"discount_percent,omitempty"`
	TaxEnabled      bool              `json:"tax_enabled,omitempty"`
	RequestedCredit decimal.Decimal   `json:"requested_credit,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
}

// toDraft prices the requested lines against the live catalog and inventory.
// The resolved prices, not anything the till sends, are what gets committed.
func (payload saleRequest) toDraft(ctx context.Context, products *catalog.Service, inv inventory.Repository) (sales.Draft, error) {
	method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
	if err != nil {
		return sales.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	var customerID *uuid.UUID
	if payload.CustomerID != nil {
		id, err := uuid.Parse(*payload.CustomerID)
		if err != nil {
			return sales.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		customerID = &id
	}

	cashierID, ok := middleware.CashierID(ctx)
	if !ok {
		return sales.Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "cashier identity is required")
	}

	basket := cart.New()
	for _, line := range payload.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return sales.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id in line")
		}
		product, err := products.Get(ctx, productID)
		if err != nil {
			return sales.Draft{}, err
		}

		if len(line.UnitIDs) > 0 {
			unitIDs := make([]uuid.UUID, 0, len(line.UnitIDs))
			for _, raw := range line.UnitIDs {
				unitID, err := uuid.Parse(raw)
				if err != nil {
					return sales.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit id in line")
				}
				unitIDs = append(unitIDs, unitID)
			}
			units, err := inv.GetUnits(ctx, unitIDs)
			if err != nil {
				return sales.Draft{}, err
			}
			if _, err := basket.AddUnits(*product, units); err != nil {
				return sales.Draft{}, err
			}
			continue
		}

		qty := line.Qty
		if qty == 0 {
			qty = 1
		}
		for i := 0; i < qty; i++ {
			if _, err := basket.AddBulk(*product); err != nil {
				return sales.Draft{}, err
			}
		}
	}

	return sales.Draft{
		Lines:           basket.Lines(),
		CustomerID:      customerID,
		CashierID:       cashierID,
		PaymentMethod:   method,
		DiscountPercent: payload.DiscountPercent,
		TaxEnabled:      payload.TaxEnabled,
		RequestedCredit: payload.RequestedCredit,
		Notes:           payload.Notes,
	}, nil
}

// CreateSale commits a sale. Post-persistence reconciliation problems come
// back as warnings on a 207, never as a failed request.
func CreateSale(committer *sales.Committer, products *catalog.Service, inv inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := payload.toDraft(r.Context(), products, inv)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := committer.Commit(r.Context(), draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCommit(w, result, result.Warnings)
	}
}

// EditSale reverts the original sale's side effects and reapplies the
// corrected draft under the customer's credit lock.
func EditSale(committer *sales.Committer, products *catalog.Service, inv inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sale id"))
			return
		}

		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := payload.toDraft(r.Context(), products, inv)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := committer.Edit(r.Context(), saleID, draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCommit(w, result, result.Warnings)
	}
}

func GetSale(committer *sales.Committer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sale id"))
			return
		}

		sale, err := committer.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

func ListSales(committer *sales.Committer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, nextCursor, err := committer.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"sales":       page,
			"next_cursor": nextCursor,
		})
	}
}
