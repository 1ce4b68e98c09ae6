package models

import (
	"time"

	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// Decision records how a registration request left the pending state.
type Decision string

const (
	DecisionNone     Decision = ""
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// RegistrationRequest is a self-service request for a role.
//
// Invariants:
//   - Pending is true only while the identity has no Participant and no other
//     pending request
//   - once decided (approved or rejected) the record is retained for queries
//     and never returns to pending; a new request replaces it
type RegistrationRequest struct {
	Identity      id.Identity
	RequestedRole id.Role
	Name          string
	Pending       bool
	Decision      Decision
	RequestedAt   time.Time
	DecidedAt     *time.Time
}

// NewRegistrationRequest validates and builds a pending request.
func NewRegistrationRequest(identity id.Identity, role id.Role, name string, now time.Time) (*RegistrationRequest, error) {
	name, err := validateEnrollment(identity, role, name)
	if err != nil {
		return nil, err
	}
	return &RegistrationRequest{
		Identity:      identity,
		RequestedRole: role,
		Name:          name,
		Pending:       true,
		RequestedAt:   now,
	}, nil
}

// CanDecide checks that the request is still awaiting a decision.
func (r *RegistrationRequest) CanDecide() error {
	if r == nil || !r.Pending {
		return dErrors.New(dErrors.CodeNotFound, "no pending registration request")
	}
	return nil
}

// ApplyApproval closes the request and returns the participant it grants.
// Call CanDecide first.
func (r *RegistrationRequest) ApplyApproval(now time.Time) *Participant {
	r.close(DecisionApproved, now)
	return &Participant{
		Identity:     r.Identity,
		Role:         r.RequestedRole,
		Name:         r.Name,
		Registered:   true,
		RegisteredAt: now,
	}
}

// ApplyRejection closes the request without granting anything.
// Call CanDecide first.
func (r *RegistrationRequest) ApplyRejection(now time.Time) {
	r.close(DecisionRejected, now)
}

func (r *RegistrationRequest) close(decision Decision, now time.Time) {
	r.Pending = false
	r.Decision = decision
	decidedAt := now
	r.DecidedAt = &decidedAt
}
