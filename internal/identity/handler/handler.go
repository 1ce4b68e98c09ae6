package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custody/internal/identity/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/httputil"
	"custody/pkg/requestcontext"
)

// Service is the identity operation surface the handlers need.
type Service interface {
	Register(ctx context.Context, caller, identity id.Identity, role id.Role, name string) (*models.Participant, error)
	Participant(ctx context.Context, identity id.Identity) (*models.Participant, error)
	RequestRegistration(ctx context.Context, identity id.Identity, role id.Role, name string) (*models.RegistrationRequest, error)
	ApproveRequest(ctx context.Context, caller, identity id.Identity) (*models.Participant, error)
	RejectRequest(ctx context.Context, caller, identity id.Identity) (*models.RegistrationRequest, error)
	PendingIdentities(ctx context.Context, caller id.Identity) ([]id.Identity, error)
	PendingRequest(ctx context.Context, identity id.Identity) (*models.RegistrationRequest, error)
}

// Handler serves participant enrollment and registration requests.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identity routes. Callers must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Post("/participants", h.handleRegister)
	r.Get("/participants/{identity}", h.handleGetParticipant)

	r.Post("/registrations", h.handleRequestRegistration)
	r.Get("/registrations/pending", h.handlePendingIdentities)
	r.Get("/registrations/{identity}", h.handleGetRequest)
	r.Post("/registrations/{identity}/approve", h.handleApprove)
	r.Post("/registrations/{identity}/reject", h.handleReject)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	identity, err := id.ParseIdentity(req.Identity)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	p, err := h.service.Register(ctx, caller, identity, id.ParseRole(req.Role), req.Name)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toParticipantResponse(p))
}

// handleGetParticipant answers participant, isRegistered and roleOf queries.
// Unregistered identities return 404.
func (h *Handler) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	p, err := h.service.Participant(ctx, identity)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toParticipantResponse(p))
}

// handleRequestRegistration files a request for the authenticated caller.
func (h *Handler) handleRequestRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RegistrationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	rr, err := h.service.RequestRegistration(ctx, caller, id.ParseRole(req.Role), req.Name)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRequestResponse(rr))
}

func (h *Handler) handlePendingIdentities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	identities, err := h.service.PendingIdentities(ctx, caller)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PendingResponse{Pending: identities})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	rr, err := h.service.PendingRequest(ctx, identity)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(rr))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	identity, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	p, err := h.service.ApproveRequest(ctx, caller, identity)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toParticipantResponse(p))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	identity, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	rr, err := h.service.RejectRequest(ctx, caller, identity)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(rr))
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		h.writeError(r.Context(), w, dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required"))
		return id.Identity{}, false
	}
	return caller, true
}

func (h *Handler) pathIdentity(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return id.Identity{}, false
	}
	return identity, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "identity request failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
