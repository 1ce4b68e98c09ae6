package service

import (
	"context"
	"errors"
	"time"

	"custody/internal/custody/models"
	events "custody/internal/events/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
	"custody/pkg/requestcontext"
)

// RegisterItem records a newly manufactured item held by caller.
//
// Failures, in check order: ValidationError, NotRegistered, Unauthorized
// (caller is not a Manufacturer).
func (s *Service) RegisterItem(ctx context.Context, caller id.Identity, name, description string) (*models.Item, error) {
	ctx, span := s.tracer.Start(ctx, "custody.RegisterItem")
	defer span.End()

	name, description, err := models.ValidateItemDetails(name, description)
	if err != nil {
		return nil, err
	}
	role, err := s.roleOf(ctx, caller)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	switch role {
	case id.RoleNone:
		return nil, dErrors.New(dErrors.CodeNotRegistered, "caller is not a registered participant")
	case id.RoleManufacturer:
	default:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only manufacturers can register items")
	}

	var item *models.Item
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		itemID, err := s.items.NextID(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate item id")
		}
		created, err := models.NewItem(itemID, name, description, caller, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.items.Create(txCtx, created); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create item")
		}
		if err := s.appendHistory(txCtx, models.ManufactureEntry(created)); err != nil {
			return err
		}
		env, err := events.NewItemRegistered(created.ID, created.Name, caller, created.CreatedAt)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build notification")
		}
		if err := s.emit(txCtx, env); err != nil {
			return err
		}
		item = created
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logAudit(ctx, "item_registered",
		"item_id", item.ID,
		"manufacturer", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementItemsRegistered()
	}
	return item, nil
}

// TransferItem hands the item from caller to recipient and advances its
// status to next. The history entry and the Transferred notification commit
// with the item update.
//
// Failures, in check order: ValidationError (notes), NotFound, Unauthorized
// (caller is not the holder), NotRegistered (recipient), InvalidRoleTransition,
// InvalidStatusTransition. Of two concurrent transfers by the same holder,
// exactly one succeeds; the other sees the new holder and fails Unauthorized.
func (s *Service) TransferItem(ctx context.Context, caller id.Identity, itemID int64, recipient id.Identity, next models.Status, notes string) (*models.Item, error) {
	ctx, span := s.tracer.Start(ctx, "custody.TransferItem")
	defer span.End()
	start := time.Now()

	item, err := s.transfer(ctx, caller, itemID, recipient, next, notes)
	if s.metrics != nil {
		s.metrics.ObserveTransferDuration(time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		s.incrementTransfer(string(dErrors.CodeOf(err)))
		return nil, err
	}

	s.logAudit(ctx, "item_transferred",
		"item_id", item.ID,
		"from", caller.String(),
		"to", recipient.String(),
		"status", item.Status.String(),
	)
	s.incrementTransfer("transferred")
	return item, nil
}

func (s *Service) transfer(ctx context.Context, caller id.Identity, itemID int64, recipient id.Identity, next models.Status, notes string) (*models.Item, error) {
	if err := models.ValidateNotes(notes); err != nil {
		return nil, err
	}
	// Roles never change once granted, so they can be read outside the lock.
	callerRole, err := s.roleOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	recipientRole, err := s.roleOf(ctx, recipient)
	if err != nil {
		return nil, err
	}

	var item *models.Item
	lockCtx := txcontext.WithShardKey(ctx, events.ItemKey(itemID))
	err = s.tx.RunInTx(lockCtx, func(txCtx context.Context) error {
		current, err := s.items.FindForUpdate(txCtx, itemID)
		if err != nil {
			return notFound(err)
		}
		if err := current.CanTransfer(caller, callerRole, recipientRole, next); err != nil {
			return err
		}
		from := current.CurrentHolder
		current.ApplyTransfer(recipient, next, requestcontext.Now(txCtx))
		if err := s.items.Update(txCtx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update item")
		}
		entry := models.TransferEntry(current.ID, from, recipient, next, current.LastUpdated, notes)
		if err := s.appendHistory(txCtx, entry); err != nil {
			return err
		}
		env, err := events.NewTransferred(current.ID, from, recipient, next.String(), current.LastUpdated)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build notification")
		}
		if err := s.emit(txCtx, env); err != nil {
			return err
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Item returns the current state of an item.
func (s *Service) Item(ctx context.Context, itemID int64) (*models.Item, error) {
	var item *models.Item
	err := s.tx.View(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.items.FindByID(txCtx, itemID)
		return notFound(err)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// HistoryOf returns the item's custody history, oldest first. The item and
// its history are read from the same committed state.
func (s *Service) HistoryOf(ctx context.Context, itemID int64) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	err := s.tx.View(ctx, func(txCtx context.Context) error {
		if _, err := s.items.FindByID(txCtx, itemID); err != nil {
			return notFound(err)
		}
		var err error
		entries, err = s.history.ListByItem(txCtx, itemID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// TotalItems returns how many items have been registered.
func (s *Service) TotalItems(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx.View(ctx, func(txCtx context.Context) error {
		var err error
		n, err = s.items.Count(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count items")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) roleOf(ctx context.Context, identity id.Identity) (id.Role, error) {
	if identity.IsZero() {
		return id.RoleNone, nil
	}
	role, err := s.registry.RoleOf(ctx, identity)
	if err != nil {
		return id.RoleNone, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up role")
	}
	return role, nil
}

func (s *Service) appendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if err := s.history.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append item history")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, env *events.Envelope) error {
	if err := s.outbox.Append(ctx, env); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue notification")
	}
	return nil
}

func (s *Service) incrementTransfer(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementTransfer(outcome)
	}
}

// notFound maps a store lookup error; nil stays nil.
func notFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "item not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
}
