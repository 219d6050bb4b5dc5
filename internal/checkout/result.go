package checkout

import "github.com/storeops-dev/backoffice-backend/pkg/db/models"

// ResultStatus is the closed set of distinguished successes a cart mutation
// can produce. Failures are reported as errors, never as a status.
type ResultStatus string

const (
	// StatusOk means the mutation applied and the cart still exists.
	StatusOk ResultStatus = "ok"
	// StatusUnchanged means the requested state already held; nothing was
	// written and no audit event was recorded.
	StatusUnchanged ResultStatus = "unchanged"
	// StatusCartRemoved means the mutation emptied the cart and the cart was
	// archived in the same transaction.
	StatusCartRemoved ResultStatus = "cart_removed"
)

// Result reports the outcome of a cart mutation. Cart is nil when the cart
// was removed.
type Result struct {
	Status ResultStatus
	Cart   *models.Cart
}

func okResult(cart *models.Cart) *Result {
	return &Result{Status: StatusOk, Cart: cart}
}

func unchangedResult(cart *models.Cart) *Result {
	return &Result{Status: StatusUnchanged, Cart: cart}
}

func cartRemovedResult() *Result {
	return &Result{Status: StatusCartRemoved}
}
