package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/api/responses"
	"github.com/orbas1/fixnado-backend/api/validators"
	"github.com/orbas1/fixnado-backend/internal/inventory"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	pkgerrors "github.com/orbas1/fixnado-backend/pkg/errors"
	"github.com/orbas1/fixnado-backend/pkg/logger"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

type inventoryCreateRequest struct {
	SKU               string          `json:"sku" validate:"required"`
	Name              string          `json:"name" validate:"required"`
	InitialQty        int             `json:"initial_qty" validate:"min=0"`
	LowStockThreshold int             `json:"low_stock_threshold" validate:"min=0"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	RateCurrency      string          `json:"rate_currency" validate:"omitempty,oneof=USD EUR GBP"`
	DepositAmount     decimal.Decimal `json:"deposit_amount"`
	DepositCurrency   string          `json:"deposit_currency" validate:"omitempty,oneof=USD EUR GBP"`
}

type inventoryAdjustRequest struct {
	AdjustmentType string  `json:"adjustment_type" validate:"required"`
	Quantity       int     `json:"quantity" validate:"required"`
	Reason         *string `json:"reason,omitempty"`
}

func InventoryCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body inventoryCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := actorFromContext(r.Context())
		item, err := svc.CreateItem(r.Context(), inventory.CreateItemInput{
			CompanyID:         companyIDFromContext(r.Context()),
			SKU:               body.SKU,
			Name:              body.Name,
			InitialQty:        body.InitialQty,
			LowStockThreshold: body.LowStockThreshold,
			DailyRate:         body.DailyRate,
			RateCurrency:      enums.Currency(body.RateCurrency),
			DepositAmount:     body.DepositAmount,
			DepositCurrency:   enums.Currency(body.DepositCurrency),
			ActorID:           actor.ID,
			ActorRole:         actor.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListItems(r.Context(), companyIDFromContext(r.Context()), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       page.Items,
			"next_cursor": page.NextCursor,
		})
	}
}

func InventoryDetail(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func InventoryLedger(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListLedgerEntries(r.Context(), itemID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"entries":     page.Entries,
			"next_cursor": page.NextCursor,
		})
	}
}

func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventoryAdjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		adjType, parseErr := enums.ParseAdjustmentType(body.AdjustmentType)
		if parseErr != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown adjustment type").WithDetails(map[string]any{"adjustment_type": body.AdjustmentType}))
			return
		}

		actor := actorFromContext(r.Context())
		result, err := svc.ApplyAdjustment(r.Context(), inventory.AdjustmentInput{
			ItemID:         itemID,
			AdjustmentType: adjType,
			Quantity:       body.Quantity,
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Reason:         body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"item":  result.Item,
			"entry": result.Entry,
			"alert": result.Alert,
		})
	}
}

func InventoryAlertList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseQueryUUID(r, "item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var itemFilter *uuid.UUID
		if itemID != uuid.Nil {
			itemFilter = &itemID
		}
		var statusFilter *enums.AlertStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, parseErr := enums.ParseAlertStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown alert status").WithDetails(map[string]any{"status": raw}))
				return
			}
			statusFilter = &status
		}

		page, err := svc.ListAlerts(r.Context(), itemFilter, statusFilter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"alerts":      page.Alerts,
			"next_cursor": page.NextCursor,
		})
	}
}

func InventoryAlertAcknowledge(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertID, err := validators.ParsePathUUID(chi.URLParam(r, "alertId"), "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := actorFromContext(r.Context())
		if actor.ID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required"))
			return
		}
		alert, err := svc.AcknowledgeAlert(r.Context(), alertID, *actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

func InventoryAlertResolve(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertID, err := validators.ParsePathUUID(chi.URLParam(r, "alertId"), "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alert, err := svc.ResolveAlert(r.Context(), alertID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}
