package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/pkg/enums"
)

// AuditEvent is the append-only trail of cart mutations. Rows are written
// inside the mutating transaction so an event never exists for a rolled-back
// change.
type AuditEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	StoreID   uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	Action    enums.AuditAction `gorm:"column:action;type:audit_action;not null"`
	Payload   json.RawMessage   `gorm:"column:payload;type:jsonb;not null"`
	Actor     string            `gorm:"column:actor;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
