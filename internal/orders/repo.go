package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
)

// Repository resolves customers and their addresses for order attribution.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCustomerForStore(ctx context.Context, customerID, storeID uuid.UUID) (*models.Customer, error)
	FindAddressForCustomer(ctx context.Context, addressID, customerID uuid.UUID) (*models.Address, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	CreateAddress(ctx context.Context, address *models.Address) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCustomerForStore(ctx context.Context, customerID, storeID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", customerID, storeID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindAddressForCustomer(ctx context.Context, addressID, customerID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

func (r *repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) CreateAddress(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}
