package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/api/responses"
	"github.com/orbas1/fixnado-backend/api/validators"
	"github.com/orbas1/fixnado-backend/internal/rentals"
	"github.com/orbas1/fixnado-backend/internal/rentals/settlement"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	pkgerrors "github.com/orbas1/fixnado-backend/pkg/errors"
	"github.com/orbas1/fixnado-backend/pkg/logger"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

type rentalCreateRequest struct {
	ItemID            uuid.UUID        `json:"item_id" validate:"required"`
	RenterID          *uuid.UUID       `json:"renter_id,omitempty"`
	ProviderID        uuid.UUID        `json:"provider_id" validate:"required"`
	Quantity          int              `json:"quantity" validate:"required,gt=0"`
	Currency          string           `json:"currency,omitempty"`
	DailyRate         decimal.Decimal  `json:"daily_rate"`
	DepositAmount     *decimal.Decimal `json:"deposit_amount,omitempty"`
	BookingRef        *string          `json:"booking_ref,omitempty"`
	ScheduledPickupAt *time.Time       `json:"scheduled_pickup_at,omitempty"`
	DueAt             *time.Time       `json:"due_at,omitempty"`
}

type schedulePickupRequest struct {
	PickupAt time.Time `json:"pickup_at" validate:"required"`
	DueAt    time.Time `json:"due_at" validate:"required"`
}

type checkoutRequest struct {
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	ConditionOut *string    `json:"condition_out,omitempty"`
}

type returnRequest struct {
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	ConditionIn *string    `json:"condition_in,omitempty"`
}

type inspectionChargeRequest struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type inspectionRequest struct {
	Outcome string                    `json:"outcome" validate:"required,oneof=ok damaged lost"`
	Charges []inspectionChargeRequest `json:"charges,omitempty" validate:"dive"`
	Notes   *string                   `json:"notes,omitempty"`
}

type cancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type disputeRequest struct {
	Reason      string  `json:"reason" validate:"required"`
	EvidenceURL *string `json:"evidence_url,omitempty" validate:"omitempty,url"`
}

type depositStatusRequest struct {
	Status string           `json:"status" validate:"required"`
	Reason *string          `json:"reason,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

func RentalCreate(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body rentalCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := actorFromContext(r.Context())
		renterID := uuid.Nil
		if body.RenterID != nil {
			renterID = *body.RenterID
		} else if actor.ID != nil {
			renterID = *actor.ID
		}
		deposit := decimal.Zero
		if body.DepositAmount != nil {
			deposit = *body.DepositAmount
		}

		rental, err := svc.Request(r.Context(), rentals.RequestInput{
			CompanyID:         companyIDFromContext(r.Context()),
			ItemID:            body.ItemID,
			RenterID:          renterID,
			ProviderID:        body.ProviderID,
			Quantity:          body.Quantity,
			Currency:          enums.Currency(body.Currency),
			DailyRate:         body.DailyRate,
			DepositAmount:     deposit,
			BookingRef:        body.BookingRef,
			ScheduledPickupAt: body.ScheduledPickupAt,
			DueAt:             body.DueAt,
			Actor:             actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rental)
	}
}

func RentalList(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renterID, err := validators.ParseQueryUUID(r, "renter_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := rentals.ListFilter{}
		if companyID := companyIDFromContext(r.Context()); companyID != uuid.Nil {
			filter.CompanyID = &companyID
		}
		if renterID != uuid.Nil {
			filter.RenterID = &renterID
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, parseErr := enums.ParseRentalStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown rental status").WithDetails(map[string]any{"status": raw}))
				return
			}
			filter.Status = &status
		}

		page, err := svc.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"rentals":     page.Rentals,
			"next_cursor": page.NextCursor,
		})
	}
}

func RentalDetail(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), rentalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"rental":      detail.Rental,
			"item":        detail.Item,
			"checkpoints": detail.Checkpoints,
		})
	}
}

func RentalApprove(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.Approve(r.Context(), rentalID, actorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

func RentalSchedulePickup(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body schedulePickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.SchedulePickup(r.Context(), rentals.SchedulePickupInput{
			RentalID: rentalID,
			PickupAt: body.PickupAt,
			DueAt:    body.DueAt,
			Actor:    actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

func RentalCheckout(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.Checkout(r.Context(), rentals.CheckoutInput{
			RentalID:     rentalID,
			CheckedOutAt: body.CheckedOutAt,
			ConditionOut: body.ConditionOut,
			Actor:        actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

func RentalReturn(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body returnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.MarkReturned(r.Context(), rentals.ReturnInput{
			RentalID:    rentalID,
			ReturnedAt:  body.ReturnedAt,
			ConditionIn: body.ConditionIn,
			Actor:       actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

func RentalInspection(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inspectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		charges := make([]settlement.Charge, 0, len(body.Charges))
		for _, charge := range body.Charges {
			charges = append(charges, settlement.Charge{Label: charge.Label, Amount: charge.Amount})
		}
		rental, err := svc.CompleteInspection(r.Context(), rentals.InspectionInput{
			RentalID: rentalID,
			Outcome:  enums.InspectionOutcome(body.Outcome),
			Charges:  charges,
			Notes:    body.Notes,
			Actor:    actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

func RentalCancel(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.Cancel(r.Context(), rentals.CancelInput{
			RentalID: rentalID,
			Reason:   body.Reason,
			Actor:    actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

func RentalDispute(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body disputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.RaiseDispute(r.Context(), rentals.DisputeInput{
			RentalID:    rentalID,
			Reason:      body.Reason,
			EvidenceURL: body.EvidenceURL,
			Actor:       actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

func RentalDepositStatus(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rentalID, err := validators.ParsePathUUID(chi.URLParam(r, "rentalId"), "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body depositStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.UpdateDepositStatus(r.Context(), rentals.DepositStatusInput{
			RentalID: rentalID,
			Status:   enums.DepositStatus(body.Status),
			Reason:   body.Reason,
			Amount:   body.Amount,
			Actor:    actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}
