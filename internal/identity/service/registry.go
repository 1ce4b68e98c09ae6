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

// Register enrolls identity directly with role. Administrator only.
//
// Failures, in check order: Unauthorized, AlreadyRegistered, InvalidRole,
// ValidationError (empty name), RequestAlreadyPending.
func (s *Service) Register(ctx context.Context, caller, identity id.Identity, role id.Role, name string) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "identity.Register")
	defer span.End()

	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	if identity.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}

	var participant *models.Participant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureNotRegistered(txCtx, identity); err != nil {
			return err
		}
		p, err := models.NewParticipant(identity, role, name, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.ensureNoPendingRequest(txCtx, identity); err != nil {
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

	s.logAudit(ctx, "participant_registered",
		"identity", identity.String(),
		"role", participant.Role.String(),
		"actor", caller.String(),
	)
	s.incrementEnrolled()
	return participant, nil
}

// Participant returns the registered participant for identity.
func (s *Service) Participant(ctx context.Context, identity id.Identity) (*models.Participant, error) {
	var p *models.Participant
	err := s.tx.View(ctx, func(txCtx context.Context) error {
		var err error
		p, err = s.participants.FindByIdentity(txCtx, identity)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "participant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participant")
	}
	return p, nil
}

func (s *Service) IsRegistered(ctx context.Context, identity id.Identity) (bool, error) {
	_, err := s.Participant(ctx, identity)
	if err == nil {
		return true, nil
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

// RoleOf returns identity's role, or RoleNone when it is not registered.
func (s *Service) RoleOf(ctx context.Context, identity id.Identity) (id.Role, error) {
	p, err := s.Participant(ctx, identity)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return id.RoleNone, nil
		}
		return id.RoleNone, err
	}
	return p.Role, nil
}

func (s *Service) requireAdmin(caller id.Identity) error {
	if caller.IsZero() || caller != s.admin {
		return dErrors.New(dErrors.CodeUnauthorized, "administrator only")
	}
	return nil
}

func (s *Service) ensureNotRegistered(ctx context.Context, identity id.Identity) error {
	_, err := s.participants.FindByIdentity(ctx, identity)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeAlreadyRegistered, "identity is already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participant")
	}
}

// createParticipant stores p and queues its Registered notification.
func (s *Service) createParticipant(ctx context.Context, p *models.Participant) error {
	if err := s.participants.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeAlreadyRegistered, "identity is already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create participant")
	}
	env, err := events.NewRegistered(p.Identity, p.Role, p.Name, p.RegisteredAt)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build notification")
	}
	return s.emit(ctx, env)
}

func (s *Service) emit(ctx context.Context, env *events.Envelope) error {
	if err := s.outbox.Append(ctx, env); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue notification")
	}
	return nil
}
