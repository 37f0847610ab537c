// Package handler exposes face enrollment and identification endpoints.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentinel/internal/identity/models"
	"sentinel/internal/platform/middleware"
	"sentinel/internal/transport/httputil"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// Store is the subset of the identity store the handler needs.
type Store interface {
	Save(ctx context.Context, identity *models.Identity) error
	FindByFaceID(ctx context.Context, faceID string) (*models.Identity, error)
}

// Identifier runs 1:N matching for the direct identify endpoint.
type Identifier interface {
	Identify(ctx context.Context, embedding []float32) (*models.Identity, float64, error)
}

// Handler handles face enrollment and identification.
type Handler struct {
	store        Store
	identifier   Identifier
	roles        *models.Roles
	embeddingDim int
	logger       *slog.Logger
}

// New creates a new identity Handler.
func New(store Store, identifier Identifier, roles *models.Roles, embeddingDim int, logger *slog.Logger) *Handler {
	return &Handler{
		store:        store,
		identifier:   identifier,
		roles:        roles,
		embeddingDim: embeddingDim,
		logger:       logger,
	}
}

// Register registers the face routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/faces/enroll", h.HandleEnroll)
	r.Post("/api/faces/identify", h.HandleIdentify)
}

// EnrollRequest carries a pre-computed embedding from the capture client.
type EnrollRequest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	FaceID    string    `json:"face_id,omitempty"`
	Embedding []float32 `json:"embedding"`
}

// EnrollResponse echoes the stored record without the embedding payload.
type EnrollResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	FaceID string `json:"face_id,omitempty"`
}

// HandleEnroll implements POST /api/faces/enroll.
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req EnrollRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.validateEnroll(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid enroll request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	if req.FaceID != "" {
		if _, err := h.store.FindByFaceID(ctx, req.FaceID); err == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "face ID already registered"))
			return
		} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
	}

	identity := &models.Identity{
		ID:        id.IdentityID(req.ID),
		Name:      req.Name,
		Role:      req.Role,
		FaceID:    req.FaceID,
		Embedding: req.Embedding,
		CreatedAt: time.Now(),
	}
	if err := h.store.Save(ctx, identity); err != nil {
		h.logger.ErrorContext(ctx, "enroll failed",
			"error", err,
			"request_id", requestID,
			"identity_id", req.ID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity enrolled",
		"identity_id", req.ID,
		"role", req.Role,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusCreated, EnrollResponse{
		ID:     req.ID,
		Name:   req.Name,
		Role:   req.Role,
		FaceID: req.FaceID,
	})
}

func (h *Handler) validateEnroll(req *EnrollRequest) error {
	if req.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if req.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !h.roles.Known(req.Role) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unrecognized role %q", req.Role))
	}
	if len(req.Embedding) != h.embeddingDim {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("embedding must have %d dimensions, got %d", h.embeddingDim, len(req.Embedding)))
	}
	return nil
}

// IdentifyRequest asks who an embedding belongs to.
type IdentifyRequest struct {
	Embedding []float32 `json:"embedding"`
}

// IdentifyResponse reports the best match, if any, with its score.
type IdentifyResponse struct {
	Match bool    `json:"match"`
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name,omitempty"`
	Role  string  `json:"role,omitempty"`
	Score float64 `json:"score"`
}

// HandleIdentify implements POST /api/faces/identify, a direct 1:N search.
func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IdentifyRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.Embedding) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "embedding is required"))
		return
	}

	match, score, err := h.identifier.Identify(ctx, req.Embedding)
	if err != nil {
		h.logger.ErrorContext(ctx, "identify failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := IdentifyResponse{Score: score}
	if match != nil {
		resp.Match = true
		resp.ID = match.ID.String()
		resp.Name = match.Name
		resp.Role = match.Role
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
