// Package handler exposes the gate device heartbeat endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	gateservice "sentinel/internal/gate/service"
	"sentinel/internal/platform/middleware"
	"sentinel/internal/transport/httputil"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// Service is the heartbeat operation the handler delegates to.
type Service interface {
	Heartbeat(ctx context.Context, deviceID id.GateID, secret string) (*gateservice.HeartbeatResult, error)
}

// Handler handles gate device check-ins.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new gate Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the heartbeat route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/heartbeat", h.HandleHeartbeat)
}

// HeartbeatRequest is sent periodically by gate devices.
type HeartbeatRequest struct {
	DeviceID string `json:"device_id"`
	Secret   string `json:"secret"`
}

// HeartbeatResponse acknowledges a recorded heartbeat.
type HeartbeatResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	GateName string `json:"gate_name,omitempty"`
}

// HandleHeartbeat implements POST /api/heartbeat.
func (h *Handler) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req HeartbeatRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.DeviceID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "device_id is required"))
		return
	}

	result, err := h.service.Heartbeat(ctx, id.GateID(req.DeviceID), req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "heartbeat rejected",
			"error", err,
			"device_id", req.DeviceID,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, HeartbeatResponse{
		Success:  true,
		Message:  "Heartbeat OK for " + req.DeviceID,
		GateName: result.GateName,
	})
}
