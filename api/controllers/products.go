package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/api/responses"
	"github.com/rmoralesc/movilpos-backend/api/validators"
	"github.com/rmoralesc/movilpos-backend/internal/catalog"
	"github.com/rmoralesc/movilpos-backend/internal/inventory"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
)

// ListProducts pages through the catalog. Defaults to active products only.
func ListProducts(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := catalog.ListQuery{
			Pagination:      params,
			Search:          strings.TrimSpace(r.URL.Query().Get("search")),
			IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
			UnitTrackedOnly: r.URL.Query().Get("unit_tracked") == "true",
		}

		result, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"products":    result.Products,
			"next_cursor": result.NextCursor,
		})
	}
}

type productRequest struct {
	Name             string           `json:"name" validate:"required"`
	BasePrice        decimal.Decimal  `json:"base_price" validate:"required"`
	NewPrice         *decimal.Decimal `json:"new_price,omitempty"`
	UsedPrice        *decimal.Decimal `json:"used_price,omitempty"`
	PhysicalSimPrice *decimal.Decimal `json:"physical_sim_price,omitempty"`
	ESimPrice        *decimal.Decimal `json:"esim_price,omitempty"`
	UnitTracked      bool             `json:"unit_tracked,omitempty"`
	Stock            int              `json:"stock,omitempty" validate:"omitempty,min=0"`
}

// CreateProduct adds a catalog entry. unit_tracked products get a model id
// and their stock lives in inventory units instead of the counter.
func CreateProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product := models.Product{
			Name:             payload.Name,
			BasePrice:        payload.BasePrice,
			NewPrice:         payload.NewPrice,
			UsedPrice:        payload.UsedPrice,
			PhysicalSimPrice: payload.PhysicalSimPrice,
			ESimPrice:        payload.ESimPrice,
			Stock:            payload.Stock,
		}
		if payload.UnitTracked {
			modelID := uuid.New()
			product.ProductModelID = &modelID
			product.Stock = 0
		}

		created, err := svc.Create(r.Context(), &product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateProduct overlays the payload on the stored product. Tracking mode is
// fixed at creation and cannot be toggled here.
func UpdateProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product.Name = payload.Name
		product.BasePrice = payload.BasePrice
		product.NewPrice = payload.NewPrice
		product.UsedPrice = payload.UsedPrice
		product.PhysicalSimPrice = payload.PhysicalSimPrice
		product.ESimPrice = payload.ESimPrice
		if !product.UnitTracked() {
			product.Stock = payload.Stock
		}

		updated, err := svc.Update(r.Context(), product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// DeactivateProduct hides the product from listings. The row is kept so past
// sales keep resolving their line items.
func DeactivateProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// ListProductUnits returns the in-stock serialized units for one product.
func ListProductUnits(repo inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		units, err := repo.ListInStock(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"units": units})
	}
}

type intakeUnitRequest struct {
	IMEI         string           `json:"imei" validate:"required"`
	Condition    string           `json:"condition" validate:"required"`
	SimType      *string          `json:"sim_type,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	PurchaseCost *decimal.Decimal `json:"purchase_cost,omitempty"`
	Note         *string          `json:"note,omitempty"`
}

// IntakeUnit registers a physical device under a unit-tracked product.
func IntakeUnit(svc *catalog.Service, repo inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload intakeUnitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !product.UnitTracked() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "product is not unit-tracked"))
			return
		}

		imei, err := inventory.NormalizeIMEI(payload.IMEI)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		condition, err := enums.ParseUnitCondition(payload.Condition)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
			return
		}

		unit := models.InventoryUnit{
			ProductID:    product.ID,
			IMEI:         imei,
			Status:       enums.UnitStatusInStock,
			Condition:    condition,
			SellingPrice: payload.SellingPrice,
			PurchaseCost: payload.PurchaseCost,
			Note:         payload.Note,
		}
		if payload.SimType != nil {
			simType, err := enums.ParseSimType(*payload.SimType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sim type"))
				return
			}
			unit.SimType = &simType
		}

		if err := repo.Intake(r.Context(), &unit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, unit)
	}
}
