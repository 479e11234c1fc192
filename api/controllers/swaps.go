package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/api/middleware"
	"github.com/rmoralesc/movilpos-backend/api/responses"
	"github.com/rmoralesc/movilpos-backend/api/validators"
	"github.com/rmoralesc/movilpos-backend/internal/swaps"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
)

type tradeInRequest struct {
	Description string           `json:"description" validate:"required"`
	Serial      string           `json:"serial" validate:"required"`
	Condition   string           `json:"condition" validate:"required"`
	Value       decimal.Decimal  `json:"value" validate:"required"`
	ResalePrice *decimal.Decimal `json:"resale_price,omitempty"`
}

type swapRequest struct {
	CustomerID         *string        `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	CustomerName       string         `json:"customer_name" validate:"required"`
	CustomerPhone      *string        `json:"customer_phone,omitempty"`
	PurchasedProductID string         `json:"purchased_product_id" validate:"required,uuid"`
	PurchasedUnitID    *string        `json:"purchased_unit_id,omitempty" validate:"omitempty,uuid"`
	TradeIn            tradeInRequest `json:"trade_in" validate:"required"`
	PaymentMethod      string         `json:"payment_method" validate:"required"`
}

func (payload swapRequest) toDraft(cashierID uuid.UUID) (swaps.Draft, error) {
	method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
	if err != nil {
		return swaps.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	condition, err := enums.ParseUnitCondition(payload.TradeIn.Condition)
	if err != nil {
		return swaps.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trade-in condition")
	}

	productID, err := uuid.Parse(payload.PurchasedProductID)
	if err != nil {
		return swaps.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchased product id")
	}

	var customerID *uuid.UUID
	if payload.CustomerID != nil {
		id, err := uuid.Parse(*payload.CustomerID)
		if err != nil {
			return swaps.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		customerID = &id
	}

	var unitID *uuid.UUID
	if payload.PurchasedUnitID != nil {
		id, err := uuid.Parse(*payload.PurchasedUnitID)
		if err != nil {
			return swaps.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchased unit id")
		}
		unitID = &id
	}

	return swaps.Draft{
		CustomerID:         customerID,
		CustomerName:       payload.CustomerName,
		CustomerPhone:      payload.CustomerPhone,
		PurchasedProductID: productID,
		PurchasedUnitID:    unitID,
		TradeIn: swaps.TradeIn{
			Description: payload.TradeIn.Description,
			Serial:      payload.TradeIn.Serial,
			Condition:   condition,
			Value:       payload.TradeIn.Value,
			ResalePrice: payload.TradeIn.ResalePrice,
		},
		PaymentMethod: method,
		CashierID:     cashierID,
	}, nil
}

// CreateSwap commits a trade-in transaction: the purchased device leaves
// stock, the surrendered one is taken in for resale.
func CreateSwap(committer *swaps.Committer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload swapRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cashierID, ok := middleware.CashierID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "cashier identity is required"))
			return
		}

		draft, err := payload.toDraft(cashierID)
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

func GetSwap(committer *swaps.Committer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		swapID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid swap id"))
			return
		}

		swap, err := committer.Get(r.Context(), swapID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, swap)
	}
}

func ListSwaps(committer *swaps.Committer, logg *logger.Logger) http.HandlerFunc {
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
			"swaps":       page,
			"next_cursor": nextCursor,
		})
	}
}
