package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/api/middleware"
	"github.com/storeops-dev/backoffice-backend/api/responses"
	"github.com/storeops-dev/backoffice-backend/api/validators"
	checkoutsvc "github.com/storeops-dev/backoffice-backend/internal/checkout"
	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/money"
)

type cartItemRequest struct {
	SKUID    uuid.UUID `json:"skuId" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=999"`
}

type createCartRequest struct {
	Items []cartItemRequest `json:"items" validate:"required,min=1,dive"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=999"`
}

type cartLineResponse struct {
	SKUID          uuid.UUID `json:"skuId"`
	ProductID      uuid.UUID `json:"productId"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unitPriceCents"`
	LineTotalCents int       `json:"lineTotalCents"`
}

type cartResponse struct {
	ID         uuid.UUID          `json:"id"`
	StoreID    uuid.UUID          `json:"storeId"`
	Status     string             `json:"status"`
	TotalCents int                `json:"totalCents"`
	Total      string             `json:"total"`
	Lines      []cartLineResponse `json:"lines"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func newCartResponse(record *models.Cart) cartResponse {
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
	return cartResponse{
		ID:         record.ID,
		StoreID:    record.StoreID,
		Status:     string(record.Status),
		TotalCents: record.TotalCents,
		Total:      money.Format(int64(record.TotalCents)),
		Lines:      lines,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func toLineInputs(items []cartItemRequest) []checkoutsvc.LineInput {
	inputs := make([]checkoutsvc.LineInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, checkoutsvc.LineInput{SKUID: item.SKUID, Quantity: item.Quantity})
	}
	return inputs
}

// CartCreate builds a pending cart from the requested items.
func CartCreate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload createCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateCart(r.Context(), storeID, toLineInputs(payload.Items))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(record))
	}
}

// CartFetch exposes the pending cart.
func CartFetch(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		storeID, cartID, err := cartScopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetCart(r.Context(), storeID, cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartAddSKU adds units of a SKU, stacking onto an existing line.
func CartAddSKU(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		storeID, cartID, err := cartScopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddLine(r.Context(), storeID, cartID, payload.SKUID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeMutationResult(w, result)
	}
}

// CartSetSKUQuantity sets a line to an absolute quantity. Zero removes the line.
func CartSetSKUQuantity(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		storeID, cartID, err := cartScopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := pathUUID(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetLineQuantity(r.Context(), storeID, cartID, skuID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeMutationResult(w, result)
	}
}

// CartRemoveSKU drops a line from the cart.
func CartRemoveSKU(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		storeID, cartID, err := cartScopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := pathUUID(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveLine(r.Context(), storeID, cartID, skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeMutationResult(w, result)
	}
}

// writeMutationResult maps the mutation outcome onto the HTTP status line.
// Unchanged mutations answer 304, a mutation that removed the cart answers 204.
func writeMutationResult(w http.ResponseWriter, result *checkoutsvc.Result) {
	switch result.Status {
	case checkoutsvc.StatusUnchanged:
		w.WriteHeader(http.StatusNotModified)
	case checkoutsvc.StatusCartRemoved:
		w.WriteHeader(http.StatusNoContent)
	default:
		responses.WriteSuccess(w, newCartResponse(result.Cart))
	}
}

func storeIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.StoreIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	storeID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
	}
	return storeID, nil
}

func cartScopeFromRequest(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	storeID, err := storeIDFromRequest(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	cartID, err := pathUUID(r, "cartId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return storeID, cartID, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	value, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return value, nil
}
