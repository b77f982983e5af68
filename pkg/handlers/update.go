package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/datalith-ai/datastore-engine/pkg/apperrors"
	"github.com/datalith-ai/datastore-engine/pkg/services"
)

// DatasourceStatusResponse is the read view of a datasource exposed for
// status polling while the asynchronous load runs.
type DatasourceStatusResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// UpdateHandler handles datasource update and status requests.
type UpdateHandler struct {
	updateService services.DatasourceUpdateService
	logger        *zap.Logger
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(updateService services.DatasourceUpdateService, logger *zap.Logger) *UpdateHandler {
	return &UpdateHandler{
		updateService: updateService,
		logger:        logger,
	}
}

// RegisterRoutes registers the update handler's routes on the given mux.
func (h *UpdateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/update", h.Update)
	mux.HandleFunc("GET /api/datasources/{id}", h.Status)
}

// Update handles POST /api/update.
// Updates a datasource's config, marks it pending, and triggers the
// asynchronous loader.
func (h *UpdateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.ID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_id", "Datasource id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.updateService.Update(r.Context(), req, r.Host, r.Header.Get("Authorization"))
	if err != nil {
		h.writeWorkflowError(w, r, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Status handles GET /api/datasources/{id}.
// Returns the datasource's current processing status under the same access
// rules as Update.
func (h *UpdateHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ds, err := h.updateService.Get(r.Context(), id, r.Host, r.Header.Get("Authorization"))
	if err != nil {
		h.writeWorkflowError(w, r, err)
		return
	}

	data := DatasourceStatusResponse{
		ID:        ds.ID.String(),
		Type:      ds.Type,
		Status:    string(ds.Status),
		UpdatedAt: ds.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeWorkflowError maps workflow faults onto HTTP responses.
func (h *UpdateHandler) writeWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrMissingTenant):
		// Plain-text body, matching what subdomain-less clients have come
		// to expect from this endpoint.
		http.Error(w, "Missing subdomain", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrNotFound):
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Datastore not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	case errors.Is(err, apperrors.ErrAccessDenied):
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	default:
		h.logger.Error("Datasource workflow failed",
			zap.String("host", r.Host),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal error"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}
