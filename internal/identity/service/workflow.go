package service

import (
	"context"
	"errors"

	events "custody/internal/events/models"
	"custody/internal/identity/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/sentinel"
	"custody/pkg/requestcontext"
)

// RequestRegistration files a self-service request for role.
//
// Failures, in check order: InvalidRole, ValidationError, AlreadyRegistered,
// RequestAlreadyPending. A previously rejected identity may request again.
func (s *Service) RequestRegistration(ctx context.Context, identity id.Identity, role id.Role, name string) (*models.RegistrationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "identity.RequestRegistration")
	defer span.End()

	var request *models.RegistrationRequest
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := models.NewRegistrationRequest(identity, role, name, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.ensureNotRegistered(txCtx, identity); err != nil {
			return err
		}
		if err := s.ensureNoPendingRequest(txCtx, identity); err != nil {
			return err
		}
		if err := s.requests.Save(txCtx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration request")
		}
		if err := s.pending.Append(txCtx, identity); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to index registration request")
		}
		env, err := events.NewRequested(identity, r.RequestedRole, r.Name, r.RequestedAt)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build notification")
		}
		if err := s.emit(txCtx, env); err != nil {
			return err
		}
		request = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.incrementRequest(string(dErrors.CodeOf(err)))
		return nil, err
	}

	s.logAudit(ctx, "registration_requested",
		"identity", identity.String(),
		"role", request.RequestedRole.String(),
	)
	s.incrementRequest("accepted")
	return request, nil
}

// ApproveRequest grants identity its requested role. Administrator only.
// Approved is queued before Registered.
func (s *Service) ApproveRequest(ctx context.Context, caller, identity id.Identity) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "identity.ApproveRequest")
	defer span.End()

	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}

	var participant *models.Participant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.loadPending(txCtx, identity)
		if err != nil {
			return err
		}
		p := r.ApplyApproval(requestcontext.Now(txCtx))
		if err := s.closeRequest(txCtx, r); err != nil {
			return err
		}
		env, err := events.NewApproved(identity, p.Role, p.RegisteredAt)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build notification")
		}
		if err := s.emit(txCtx, env); err != nil {
			return err
		}
		if err := s.createParticipant(txCtx, p); err != nil {
			return err
		}
		participant = p
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logAudit(ctx, "registration_approved",
		"identity", identity.String(),
		"role", participant.Role.String(),
		"actor", caller.String(),
	)
	s.incrementDecision(models.DecisionApproved)
	s.incrementEnrolled()
	return participant, nil
}

// RejectRequest closes identity's pending request without granting a role.
// Administrator only.
func (s *Service) RejectRequest(ctx context.Context, caller, identity id.Identity) (*models.RegistrationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "identity.RejectRequest")
	defer span.End()

	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}

	var request *models.RegistrationRequest
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.loadPending(txCtx, identity)
		if err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)
		r.ApplyRejection(now)
		if err := s.closeRequest(txCtx, r); err != nil {
			return err
		}
		env, err := events.NewRejected(identity, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build notification")
		}
		if err := s.emit(txCtx, env); err != nil {
			return err
		}
		request = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logAudit(ctx, "registration_rejected",
		"identity", identity.String(),
		"actor", caller.String(),
	)
	s.incrementDecision(models.DecisionRejected)
	return request, nil
}

// PendingIdentities lists identities with a pending request. Administrator
// only.
//
// Order is insertion order until the first decision. Deciding a request moves
// the last entry into the decided entry's slot, so callers must not assume
// FIFO order.
func (s *Service) PendingIdentities(ctx context.Context, caller id.Identity) ([]id.Identity, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	var identities []id.Identity
	err := s.tx.View(ctx, func(txCtx context.Context) error {
		var err error
		identities, err = s.pending.List(txCtx)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	if identities == nil {
		identities = []id.Identity{}
	}
	return identities, nil
}

// PendingRequest returns the retained request record for identity, pending
// or decided.
func (s *Service) PendingRequest(ctx context.Context, identity id.Identity) (*models.RegistrationRequest, error) {
	var r *models.RegistrationRequest
	err := s.tx.View(ctx, func(txCtx context.Context) error {
		var err error
		r, err = s.requests.FindByIdentity(txCtx, identity)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration request")
	}
	return r, nil
}

func (s *Service) ensureNoPendingRequest(ctx context.Context, identity id.Identity) error {
	r, err := s.requests.FindByIdentity(ctx, identity)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration request")
	case r.Pending:
		return dErrors.New(dErrors.CodeRequestAlreadyPending, "a registration request is already pending")
	default:
		return nil
	}
}

func (s *Service) loadPending(ctx context.Context, identity id.Identity) (*models.RegistrationRequest, error) {
	r, err := s.requests.FindByIdentity(ctx, identity)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration request")
	}
	if err := r.CanDecide(); err != nil {
		return nil, err
	}
	return r, nil
}

// closeRequest persists a decided request and drops it from the pending index.
func (s *Service) closeRequest(ctx context.Context, r *models.RegistrationRequest) error {
	if err := s.requests.Save(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration request")
	}
	if err := s.pending.Remove(ctx, r.Identity); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvariantViolation, "pending request missing from index")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pending index")
	}
	return nil
}
