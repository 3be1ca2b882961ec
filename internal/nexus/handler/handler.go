// Package handler exposes the transfer request endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"baranex/internal/nexus/models"
	"baranex/internal/nexus/service"
	"baranex/internal/platform/middleware"
	"baranex/internal/transport/http/shared"
	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
)

// Service defines the transfer operations the handler delegates to.
type Service interface {
	CreateRequest(ctx context.Context, input service.CreateRequestInput) (*models.TransferRequest, error)
	GetRequest(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, error)
	ListIncoming(ctx context.Context) ([]*models.TransferRequest, error)
	ListOutgoing(ctx context.Context) ([]*models.TransferRequest, error)
	Accept(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, int, error)
	Reject(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, error)
}

// Handler handles transfer request endpoints.
type Handler struct {
	logger       *slog.Logger
	nexus        Service
	jwtValidator middleware.JWTValidator
}

// New creates a new nexus Handler.
func New(nexus Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		nexus:        nexus,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the transfer routes. Every route is authenticated; the
// source barangay and initiator always come from the token, never the body.
func (h *Handler) Register(r chi.Router) {
	nexusRouter := chi.NewRouter()
	nexusRouter.Use(middleware.Recovery(h.logger))
	nexusRouter.Use(middleware.RequestID)
	nexusRouter.Use(middleware.RequestTime)
	nexusRouter.Use(middleware.Logger(h.logger))
	nexusRouter.Use(middleware.Timeout(30 * time.Second))
	nexusRouter.Use(middleware.ContentTypeJSON)
	nexusRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	nexusRouter.Post("/nexus/requests", h.handleCreateRequest)
	nexusRouter.Get("/nexus/requests/{requestID}", h.handleGetRequest)
	nexusRouter.Post("/nexus/requests/{requestID}/accept", h.handleAccept)
	nexusRouter.Post("/nexus/requests/{requestID}/reject", h.handleReject)
	nexusRouter.Get("/nexus/incoming", h.handleListIncoming)
	nexusRouter.Get("/nexus/outgoing", h.handleListOutgoing)

	r.Mount("/", nexusRouter)
}

type createRequestPayload struct {
	Destination string   `json:"destination"`
	DataType    string   `json:"datatype"`
	ItemIDs     []string `json:"dataid"`
	Notes       string   `json:"notes"`
}

type listResponse struct {
	Requests []*models.TransferRequest `json:"requests"`
}

// acceptResponse is the request envelope plus the number of items the
// accept actually moved (zero-distance moves from a retried accept count
// as migrated).
type acceptResponse struct {
	*models.TransferRequest
	Migrated int `json:"migrated"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	destination, err := id.ParseBarangayID(payload.Destination)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	dataType, err := models.ParseDataType(payload.DataType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	itemIDs := make([]id.RecordID, 0, len(payload.ItemIDs))
	for _, raw := range payload.ItemIDs {
		itemID, err := id.ParseRecordID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		itemIDs = append(itemIDs, itemID)
	}

	req, err := h.nexus.CreateRequest(ctx, service.CreateRequestInput{
		DestinationBarangay: destination,
		DataType:            dataType,
		ItemIDs:             itemIDs,
		Notes:               payload.Notes,
	})
	if err != nil {
		h.logError(ctx, "create transfer request failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, err := h.nexus.GetRequest(ctx, requestID)
	if err != nil {
		h.logError(ctx, "get transfer request failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, migrated, err := h.nexus.Accept(ctx, requestID)
	if err != nil {
		h.writeResolutionError(ctx, w, "accept transfer request failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, acceptResponse{TransferRequest: req, Migrated: migrated})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, err := h.nexus.Reject(ctx, requestID)
	if err != nil {
		h.writeResolutionError(ctx, w, "reject transfer request failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) writeResolutionError(ctx context.Context, w http.ResponseWriter, logMessage string, err error) {
	h.logError(ctx, logMessage, err)

	// Stale selections carry the offending ids so the client can show
	// which items disqualified the transfer.
	var stale *service.StaleSelectionError
	if errors.As(err, &stale) {
		shared.WriteErrorDetails(w, err, recordIDStrings(stale.OffendingIDs()))
		return
	}
	shared.WriteError(w, err)
}

func (h *Handler) handleListIncoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.nexus.ListIncoming(ctx)
	if err != nil {
		h.logError(ctx, "list incoming transfers failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Requests: reqs})
}

func (h *Handler) handleListOutgoing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.nexus.ListOutgoing(ctx)
	if err != nil {
		h.logError(ctx, "list outgoing transfers failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Requests: reqs})
}

func (h *Handler) logError(ctx context.Context, message string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, message, "error", err)
		return
	}
	h.logger.WarnContext(ctx, message, "error", err)
}

func recordIDStrings(ids []id.RecordID) []string {
	out := make([]string, len(ids))
	for i, rid := range ids {
		out[i] = rid.String()
	}
	return out
}
