package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/api/responses"
	"github.com/storeops-dev/backoffice-backend/api/validators"
	checkoutsvc "github.com/storeops-dev/backoffice-backend/internal/checkout"
	ordersvc "github.com/storeops-dev/backoffice-backend/internal/orders"
	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/money"
)

type confirmOrderRequest struct {
	CartID    *uuid.UUID        `json:"cartId"`
	AddressID *uuid.UUID        `json:"addressId"`
	Items     []cartItemRequest `json:"items" validate:"omitempty,dive"`
}

type orderResponse struct {
	ID          uuid.UUID          `json:"id"`
	StoreID     uuid.UUID          `json:"storeId"`
	CustomerID  *uuid.UUID         `json:"customerId,omitempty"`
	AddressID   *uuid.UUID         `json:"addressId,omitempty"`
	Status      string             `json:"status"`
	TotalCents  int                `json:"totalCents"`
	Total       string             `json:"total"`
	Lines       []cartLineResponse `json:"lines"`
	ConfirmedAt time.Time          `json:"confirmedAt"`
}

func newOrderResponse(record *models.Cart) orderResponse {
	lines := make([]cartLineResponse, 0, len(record.Lines))
	for _, line := range record.Lines {
		lines = append(lines, cartLineResponse{
			SKUID:          line.SKUID,
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return orderResponse{
		ID:          record.ID,
		StoreID:     record.StoreID,
		CustomerID:  record.CustomerID,
		AddressID:   record.AddressID,
		Status:      string(record.Status),
		TotalCents:  record.TotalCents,
		Total:       money.Format(int64(record.TotalCents)),
		Lines:       lines,
		ConfirmedAt: record.UpdatedAt,
	}
}

// OrderConfirm converts the customer's cart into a confirmed order. With no
// cart id the order is built from the request items and confirmed in one step.
func OrderConfirm(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Confirm(r.Context(), storeID, customerID, checkoutsvc.ConfirmInput{
			CartID:    payload.CartID,
			AddressID: payload.AddressID,
			Items:     toLineInputs(payload.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(record))
	}
}

// OrderList returns the customer's confirmed order history, newest first.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListForCustomer(r.Context(), storeID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listed := make([]orderResponse, 0, len(records))
		for i := range records {
			listed = append(listed, newOrderResponse(&records[i]))
		}
		responses.WriteSuccess(w, listed)
	}
}
