// Package handler exposes the session protocol over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentinel/internal/platform/middleware"
	"sentinel/internal/session/models"
	"sentinel/internal/session/service"
	"sentinel/internal/transport/httputil"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// Service is the session operations surface the handler needs.
type Service interface {
	Start(ctx context.Context, gateID *id.GateID) (*models.Session, error)
	Scan(ctx context.Context, sessionID id.SessionID, embedding []float32) (*service.ScanResult, error)
	Status(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Cancel(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
}

// Handler handles session lifecycle and scan requests.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new session Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the session routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/session/start", h.HandleStart)
	r.Post("/api/session/scan", h.HandleScan)
	r.Get("/api/session/{session_id}", h.HandleStatus)
	r.Delete("/api/session/{session_id}", h.HandleCancel)
}

// StartRequest optionally binds the session to a gate.
type StartRequest struct {
	GateID string `json:"gate_id,omitempty"`
}

// StartResponse acknowledges a new session.
type StartResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Message   string `json:"message"`
}

// HandleStart implements POST /api/session/start.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StartRequest
	if r.ContentLength > 0 {
		if err := httputil.Decode(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	var gateID *id.GateID
	if req.GateID != "" {
		g := id.GateID(req.GateID)
		gateID = &g
	}

	session, err := h.service.Start(ctx, gateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "start session failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, StartResponse{
		SessionID: session.ID.String(),
		State:     session.State.String(),
		Message:   "session started, waiting for vendor scans",
	})
}

// ScanRequest carries one face scan against a session.
type ScanRequest struct {
	SessionID string    `json:"session_id"`
	Embedding []float32 `json:"embedding"`
}

// PersonPayload identifies one participant in responses.
type PersonPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScanResponse reports the session after one scan was processed.
type ScanResponse struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Message   string         `json:"message"`
	Vendors   []string       `json:"vendors"`
	Approver  *PersonPayload `json:"approver,omitempty"`
	TaskID    string         `json:"task_id,omitempty"`
	Score     float64        `json:"score,omitempty"`
}

// HandleScan implements POST /api/session/scan.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScanRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID, err := id.ParseSessionID(req.SessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.Embedding) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "embedding is required"))
		return
	}

	result, err := h.service.Scan(ctx, sessionID, req.Embedding)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "scan failed",
				"error", err,
				"session_id", sessionID,
				"request_id", middleware.GetRequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	resp := ScanResponse{
		SessionID: result.Session.ID.String(),
		State:     result.Session.State.String(),
		Message:   result.Message,
		Vendors:   result.Session.VendorNames(),
		TaskID:    result.TaskID.String(),
		Score:     result.Score,
	}
	if result.Session.Approver != nil {
		resp.Approver = &PersonPayload{
			ID:   result.Session.Approver.ID.String(),
			Name: result.Session.Approver.Name,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// StatusResponse is a point-in-time session snapshot.
type StatusResponse struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	GateID    string         `json:"gate_id,omitempty"`
	Vendors   []string       `json:"vendors"`
	Approver  *PersonPayload `json:"approver,omitempty"`
	TaskID    string         `json:"task_id,omitempty"`
	ExpiresAt string         `json:"expires_at"`
}

// HandleStatus implements GET /api/session/{session_id}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "session_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.Status(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := StatusResponse{
		SessionID: session.ID.String(),
		State:     session.State.String(),
		Vendors:   session.VendorNames(),
		TaskID:    session.TaskID.String(),
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if session.GateID != nil {
		resp.GateID = session.GateID.String()
	}
	if session.Approver != nil {
		resp.Approver = &PersonPayload{
			ID:   session.Approver.ID.String(),
			Name: session.Approver.Name,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// CancelResponse acknowledges a cancellation.
type CancelResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Message   string `json:"message"`
}

// HandleCancel implements DELETE /api/session/{session_id}.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "session_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.Cancel(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CancelResponse{
		SessionID: session.ID.String(),
		State:     session.State.String(),
		Message:   "session cancelled",
	})
}
