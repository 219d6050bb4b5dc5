package enums

import "fmt"

// CartStatus tracks a cart through its lifecycle. A cart is an order in
// pending state; both terminal states are final.
type CartStatus string

const (
	CartStatusPending   CartStatus = "pending"
	CartStatusConfirmed CartStatus = "confirmed"
	CartStatusArchived  CartStatus = "archived"
)

var validCartStatuses = []CartStatus{
	CartStatusPending,
	CartStatusConfirmed,
	CartStatusArchived,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (c CartStatus) IsTerminal() bool {
	return c == CartStatusConfirmed || c == CartStatusArchived
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
