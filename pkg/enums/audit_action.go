package enums

import "fmt"

// AuditAction labels the append-only audit trail entries the cart engine
// writes alongside every committed mutation.
type AuditAction string

const (
	AuditLineAdded      AuditAction = "line_added"
	AuditLineUpdated    AuditAction = "line_updated"
	AuditLineRemoved    AuditAction = "line_removed"
	AuditOrderConfirmed AuditAction = "order_confirmed"
	AuditCartArchived   AuditAction = "cart_archived"
)

var validAuditActions = []AuditAction{
	AuditLineAdded,
	AuditLineUpdated,
	AuditLineRemoved,
	AuditOrderConfirmed,
	AuditCartArchived,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
