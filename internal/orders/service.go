package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/internal/cart"
	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
)

// Service exposes the confirmed order read side. A confirmed order is a cart
// in confirmed status attributed to a customer.
type Service interface {
	ListForCustomer(ctx context.Context, storeID, customerID uuid.UUID) ([]models.Cart, error)
}

type service struct {
	repo     Repository
	cartRepo cart.Repository
}

// NewService wires the orders service with its repositories.
func NewService(repo Repository, cartRepo cart.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo, cartRepo: cartRepo}, nil
}

func (s *service) ListForCustomer(ctx context.Context, storeID, customerID uuid.UUID) ([]models.Cart, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	customer, err := s.repo.FindCustomerForStore(ctx, customerID, storeID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	return s.cartRepo.ListConfirmedForCustomer(ctx, customerID)
}
