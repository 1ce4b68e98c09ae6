package models

import (
	"strings"
	"time"

	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// MaxNameLength bounds participant and request display names.
const MaxNameLength = 128

// Participant is an approved identity holding exactly one immutable role.
//
// Invariants:
//   - at most one Participant per identity
//   - Role is never RoleNone
//   - Role never changes after construction; there is no update path
type Participant struct {
	Identity     id.Identity
	Role         id.Role
	Name         string
	Registered   bool
	RegisteredAt time.Time
}

// NewParticipant validates and builds a registered participant.
func NewParticipant(identity id.Identity, role id.Role, name string, now time.Time) (*Participant, error) {
	name, err := validateEnrollment(identity, role, name)
	if err != nil {
		return nil, err
	}
	return &Participant{
		Identity:     identity,
		Role:         role,
		Name:         name,
		Registered:   true,
		RegisteredAt: now,
	}, nil
}

// validateEnrollment applies the checks shared by direct registration and
// registration requests, in the order failures are reported.
func validateEnrollment(identity id.Identity, role id.Role, name string) (string, error) {
	if identity.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if !role.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidRole, "role must be one of Manufacturer, Distributor, Retailer, Customer")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(name) > MaxNameLength {
		return "", dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	return name, nil
}
