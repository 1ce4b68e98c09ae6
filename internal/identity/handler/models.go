package handler

import (
	"time"

	"custody/internal/identity/models"
	id "custody/pkg/domain"
)

type RegisterRequest struct {
	Identity string `json:"identity"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

type RegistrationRequest struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

type ParticipantResponse struct {
	Identity     id.Identity `json:"identity"`
	Role         id.Role     `json:"role"`
	Name         string      `json:"name"`
	Registered   bool        `json:"registered"`
	RegisteredAt time.Time   `json:"registered_at"`
}

type RequestResponse struct {
	Identity      id.Identity `json:"identity"`
	RequestedRole id.Role     `json:"requested_role"`
	Name          string      `json:"name"`
	Pending       bool        `json:"pending"`
	Decision      string      `json:"decision,omitempty"`
	RequestedAt   time.Time   `json:"requested_at"`
	DecidedAt     *time.Time  `json:"decided_at,omitempty"`
}

// PendingResponse lists pending identities. Order is not FIFO once any
// request has been decided.
type PendingResponse struct {
	Pending []id.Identity `json:"pending"`
}

func toParticipantResponse(p *models.Participant) ParticipantResponse {
	return ParticipantResponse{
		Identity:     p.Identity,
		Role:         p.Role,
		Name:         p.Name,
		Registered:   p.Registered,
		RegisteredAt: p.RegisteredAt,
	}
}

func toRequestResponse(r *models.RegistrationRequest) RequestResponse {
	return RequestResponse{
		Identity:      r.Identity,
		RequestedRole: r.RequestedRole,
		Name:          r.Name,
		Pending:       r.Pending,
		Decision:      string(r.Decision),
		RequestedAt:   r.RequestedAt,
		DecidedAt:     r.DecidedAt,
	}
}
