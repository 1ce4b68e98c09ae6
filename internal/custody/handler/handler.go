package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"custody/internal/custody/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/httputil"
	"custody/pkg/requestcontext"
)

// Service is the ledger operation surface the handlers need.
type Service interface {
	RegisterItem(ctx context.Context, caller id.Identity, name, description string) (*models.Item, error)
	TransferItem(ctx context.Context, caller id.Identity, itemID int64, recipient id.Identity, next models.Status, notes string) (*models.Item, error)
	Item(ctx context.Context, itemID int64) (*models.Item, error)
	HistoryOf(ctx context.Context, itemID int64) ([]*models.HistoryEntry, error)
	TotalItems(ctx context.Context) (int64, error)
}

// Handler serves item registration, transfers and custody queries.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the ledger routes. Callers must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Post("/items", h.handleRegisterItem)
	r.Get("/items/count", h.handleTotalItems)
	r.Get("/items/{id}", h.handleGetItem)
	r.Post("/items/{id}/transfers", h.handleTransfer)
	r.Get("/items/{id}/history", h.handleHistory)
}

func (h *Handler) handleRegisterItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RegisterItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	item, err := h.service.RegisterItem(ctx, caller, req.Name, req.Description)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	itemID, ok := h.pathItemID(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	recipient, err := id.ParseIdentity(req.To)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var next models.Status
	if err := next.UnmarshalText([]byte(req.Status)); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	item, err := h.service.TransferItem(ctx, caller, itemID, recipient, next, req.Notes)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.pathItemID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Item(ctx, itemID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.pathItemID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.HistoryOf(ctx, itemID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponse(itemID, entries))
}

func (h *Handler) handleTotalItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.service.TotalItems(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Total: total})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		h.writeError(r.Context(), w, dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required"))
		return id.Identity{}, false
	}
	return caller, true
}

func (h *Handler) pathItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || itemID <= 0 {
		h.writeError(r.Context(), w, dErrors.New(dErrors.CodeBadRequest, "item id must be a positive integer"))
		return 0, false
	}
	return itemID, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "ledger request failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
