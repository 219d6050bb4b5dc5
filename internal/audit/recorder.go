package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	"github.com/storeops-dev/backoffice-backend/pkg/enums"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/pagination"
)

// StoreActorLabel is the audit actor recorded for storefront-driven cart
// mutations.
func StoreActorLabel(storeID uuid.UUID) string {
	return "client-store:" + storeID.String()
}

// Recorder appends audit events. Record runs on the caller's transaction so
// an event never exists for a rolled-back mutation.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	ListForStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.AuditEvent, string, error)
}

// Entry captures one audit trail row.
type Entry struct {
	StoreID uuid.UUID
	Action  enums.AuditAction
	Actor   string
	Payload any
}

type recorder struct {
	db *gorm.DB
}

// NewRecorder returns an audit recorder bound to the provided database.
func NewRecorder(db *gorm.DB) Recorder {
	return &recorder{db: db}
}

func (r *recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if entry.StoreID == uuid.Nil {
		return fmt.Errorf("store id is required")
	}
	if !entry.Action.IsValid() {
		return fmt.Errorf("invalid audit action %q", entry.Action)
	}
	if entry.Actor == "" {
		return fmt.Errorf("actor is required")
	}

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	event := models.AuditEvent{
		ID:      uuid.New(),
		StoreID: entry.StoreID,
		Action:  entry.Action,
		Payload: payload,
		Actor:   entry.Actor,
	}
	return tx.WithContext(ctx).Create(&event).Error
}

// ListForStore pages the store's trail newest first. The returned cursor is
// empty on the last page.
func (r *recorder) ListForStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.AuditEvent, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var events []models.AuditEvent
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&events).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return events, next, nil
}
