package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/api/responses"
	"github.com/storeops-dev/backoffice-backend/api/validators"
	auditsvc "github.com/storeops-dev/backoffice-backend/internal/audit"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/pagination"
)

type auditEventResponse struct {
	ID        uuid.UUID       `json:"id"`
	Action    string          `json:"action"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

type auditListResponse struct {
	Events     []auditEventResponse `json:"events"`
	NextCursor string               `json:"nextCursor,omitempty"`
}

// AuditList returns the store's audit trail, newest first.
func AuditList(recorder auditsvc.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if recorder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit recorder unavailable"))
			return
		}
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, next, err := recorder.ListForStore(r.Context(), storeID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listed := make([]auditEventResponse, 0, len(events))
		for _, event := range events {
			listed = append(listed, auditEventResponse{
				ID:        event.ID,
				Action:    string(event.Action),
				Actor:     event.Actor,
				Payload:   json.RawMessage(event.Payload),
				CreatedAt: event.CreatedAt,
			})
		}
		responses.WriteSuccess(w, auditListResponse{Events: listed, NextCursor: next})
	}
}
