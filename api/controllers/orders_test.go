package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/api/middleware"
	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	"github.com/storeops-dev/backoffice-backend/pkg/enums"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
)

type stubOrdersService struct {
	records []models.Cart
	err     error
}

func (s *stubOrdersService) ListForCustomer(ctx context.Context, storeID, customerID uuid.UUID) ([]models.Cart, error) {
	return s.records, s.err
}

func confirmedCart(storeID, customerID uuid.UUID) models.Cart {
	return models.Cart{
		ID:         uuid.New(),
		StoreID:    storeID,
		Status:     enums.CartStatusConfirmed,
		TotalCents: 2500,
		CustomerID: &customerID,
	}
}

func TestOrderConfirmSuccess(t *testing.T) {
	storeID := uuid.New()
	customerID := uuid.New()
	record := confirmedCart(storeID, customerID)
	handler := OrderConfirm(&stubCheckoutService{record: &record}, nil)

	body := `{"cartId":"` + record.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customerID.String()+"/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithStoreID(req.Context(), storeID.String()))
	req = withRouteParams(req, map[string]string{"customerId": customerID.String()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.CartStatusConfirmed) {
		t.Fatalf("unexpected status: %s", envelope.Data.Status)
	}
	if envelope.Data.CustomerID == nil || *envelope.Data.CustomerID != customerID {
		t.Fatalf("customer id missing from response")
	}
}

func TestOrderConfirmStateConflict(t *testing.T) {
	customerID := uuid.New()
	handler := OrderConfirm(&stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart already processed")}, nil)

	body := `{"cartId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customerID.String()+"/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithStoreID(req.Context(), uuid.NewString()))
	req = withRouteParams(req, map[string]string{"customerId": customerID.String()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderConfirmInvalidCustomerID(t *testing.T) {
	handler := OrderConfirm(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/nope/orders", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithStoreID(req.Context(), uuid.NewString()))
	req = withRouteParams(req, map[string]string{"customerId": "nope"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderListSuccess(t *testing.T) {
	storeID := uuid.New()
	customerID := uuid.New()
	records := []models.Cart{confirmedCart(storeID, customerID), confirmedCart(storeID, customerID)}
	handler := OrderList(&stubOrdersService{records: records}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+customerID.String()+"/orders", nil)
	req = req.WithContext(middleware.WithStoreID(req.Context(), storeID.String()))
	req = withRouteParams(req, map[string]string{"customerId": customerID.String()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(envelope.Data))
	}
}

func TestOrderListUnknownCustomer(t *testing.T) {
	customerID := uuid.New()
	handler := OrderList(&stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+customerID.String()+"/orders", nil)
	req = req.WithContext(middleware.WithStoreID(req.Context(), uuid.NewString()))
	req = withRouteParams(req, map[string]string{"customerId": customerID.String()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
