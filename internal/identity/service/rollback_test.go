package service

import (
	"context"
	"errors"

	events "custody/internal/events/models"
	"custody/internal/identity/store/participant"
	"custody/internal/identity/store/request"
	"custody/internal/platform/memtx"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// failOnType queues notifications normally except for one type, where it runs
// before and then fails the transaction.
type failOnType struct {
	Outbox
	fail   events.Type
	before func()
}

func (o *failOnType) Append(ctx context.Context, env *events.Envelope) error {
	if env.Type != o.fail {
		return o.Outbox.Append(ctx, env)
	}
	if o.before != nil {
		o.before()
	}
	return errors.New("outbox unavailable")
}

// pair returns a working service and one whose outbox fails on the given
// notification type. Both share every store and the transaction lanes.
func (s *ServiceSuite) pair(fail events.Type) (*Service, *Service, *failOnType) {
	stores := Stores{
		Participants: participant.NewInMemory(),
		Requests:     request.NewInMemory(),
		Pending:      s.pending,
		Outbox:       s.outbox,
	}
	lanes := memtx.NewLanes(0)
	good := New(stores, admin, WithTx(lanes))
	box := &failOnType{Outbox: s.outbox, fail: fail}
	stores.Outbox = box
	broken := New(stores, admin, WithTx(lanes))
	return good, broken, box
}

func (s *ServiceSuite) requireStillPending(ctx context.Context, svc *Service, identity id.Identity) {
	list, err := svc.PendingIdentities(ctx, admin)
	s.Require().NoError(err)
	s.Contains(list, identity)
	r, err := svc.PendingRequest(ctx, identity)
	s.Require().NoError(err)
	s.True(r.Pending)
	registered, err := svc.IsRegistered(ctx, identity)
	s.Require().NoError(err)
	s.False(registered)
}

func (s *ServiceSuite) TestApprovalFailingAfterParticipantCreatedLeavesNoTrace() {
	good, broken, box := s.pair(events.TypeRegistered)
	_, err := good.RequestRegistration(s.ctx, alice, id.RoleDistributor, "Freight")
	s.Require().NoError(err)
	_, err = good.RequestRegistration(s.ctx, bob, id.RoleRetailer, "Shop")
	s.Require().NoError(err)

	box.before = func() { s.requireStillPending(context.Background(), good, alice) }
	_, err = broken.ApproveRequest(s.ctx, admin, alice)
	s.requireCode(err, dErrors.CodeInternal)

	s.requireStillPending(s.ctx, good, alice)
	list, err := good.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal([]id.Identity{alice, bob}, list, "index order is untouched")
	role, err := good.RoleOf(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(id.RoleNone, role)
	s.Equal([]events.Type{events.TypeRequested, events.TypeRequested}, s.eventTypes())

	_, err = good.ApproveRequest(s.ctx, admin, alice)
	s.Require().NoError(err)
	s.Equal([]events.Type{
		events.TypeRequested, events.TypeRequested,
		events.TypeApproved, events.TypeRegistered,
	}, s.eventTypes())
}

func (s *ServiceSuite) TestRejectionFailingAfterRequestClosedLeavesNoTrace() {
	good, broken, box := s.pair(events.TypeRejected)
	_, err := good.RequestRegistration(s.ctx, carol, id.RoleCustomer, "Carol")
	s.Require().NoError(err)

	box.before = func() { s.requireStillPending(context.Background(), good, carol) }
	_, err = broken.RejectRequest(s.ctx, admin, carol)
	s.requireCode(err, dErrors.CodeInternal)

	s.requireStillPending(s.ctx, good, carol)
	_, err = good.RejectRequest(s.ctx, admin, carol)
	s.Require().NoError(err)
	list, err := good.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Empty(list)
}
