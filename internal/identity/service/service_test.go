package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	events "custody/internal/events/models"
	"custody/internal/events/outbox"
	"custody/internal/identity/models"
	"custody/internal/identity/store/participant"
	"custody/internal/identity/store/pending"
	"custody/internal/identity/store/request"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/requestcontext"
)

var (
	admin   = id.MustParseIdentity("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	alice   = id.MustParseIdentity("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	bob     = id.MustParseIdentity("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	carol   = id.MustParseIdentity("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
	mallory = id.MustParseIdentity("0x52908400098527886E0F7030069857D2E4169EE7")
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	pending *pending.InMemory
	outbox  *outbox.Memory
	ctx     context.Context
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.pending = pending.NewInMemory()
	s.outbox = outbox.NewMemory()
	s.service = New(Stores{
		Participants: participant.NewInMemory(),
		Requests:     request.NewInMemory(),
		Pending:      s.pending,
		Outbox:       s.outbox,
	}, admin)
	s.now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) eventTypes() []events.Type {
	var out []events.Type
	for _, env := range s.outbox.Entries() {
		out = append(out, env.Type)
	}
	return out
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.Equal(code, dErrors.CodeOf(err), err.Error())
}

func (s *ServiceSuite) TestRegister() {
	s.Run("administrator enrolls participant", func() {
		p, err := s.service.Register(s.ctx, admin, alice, id.RoleManufacturer, " Acme ")
		s.Require().NoError(err)
		s.Equal("Acme", p.Name)
		s.Equal(s.now, p.RegisteredAt)

		ok, err := s.service.IsRegistered(s.ctx, alice)
		s.Require().NoError(err)
		s.True(ok)
		role, err := s.service.RoleOf(s.ctx, alice)
		s.Require().NoError(err)
		s.Equal(id.RoleManufacturer, role)
		s.Equal([]events.Type{events.TypeRegistered}, s.eventTypes())
	})

	s.Run("non-administrator rejected", func() {
		_, err := s.service.Register(s.ctx, alice, bob, id.RoleRetailer, "Shop")
		s.requireCode(err, dErrors.CodeUnauthorized)
	})

	s.Run("re-registration rejected and role unchanged", func() {
		_, err := s.service.Register(s.ctx, admin, alice, id.RoleCustomer, "Other")
		s.requireCode(err, dErrors.CodeAlreadyRegistered)
		role, _ := s.service.RoleOf(s.ctx, alice)
		s.Equal(id.RoleManufacturer, role)
	})

	s.Run("role none rejected", func() {
		_, err := s.service.Register(s.ctx, admin, bob, id.RoleNone, "Shop")
		s.requireCode(err, dErrors.CodeInvalidRole)
	})

	s.Run("blank name rejected", func() {
		_, err := s.service.Register(s.ctx, admin, bob, id.RoleRetailer, "  ")
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("pending identity cannot be enrolled directly", func() {
		_, err := s.service.RequestRegistration(s.ctx, carol, id.RoleCustomer, "Carol")
		s.Require().NoError(err)
		_, err = s.service.Register(s.ctx, admin, carol, id.RoleCustomer, "Carol")
		s.requireCode(err, dErrors.CodeRequestAlreadyPending)
	})
}

func (s *ServiceSuite) TestUnknownParticipant() {
	_, err := s.service.Participant(s.ctx, mallory)
	s.requireCode(err, dErrors.CodeNotFound)

	ok, err := s.service.IsRegistered(s.ctx, mallory)
	s.Require().NoError(err)
	s.False(ok)

	role, err := s.service.RoleOf(s.ctx, mallory)
	s.Require().NoError(err)
	s.Equal(id.RoleNone, role)
}

// Scenario: request, approve, then reject a second identity.
func (s *ServiceSuite) TestRegistrationLifecycle() {
	req, err := s.service.RequestRegistration(s.ctx, bob, id.RoleDistributor, "Dist Co")
	s.Require().NoError(err)
	s.True(req.Pending)

	pendingIDs, err := s.service.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal([]id.Identity{bob}, pendingIDs)

	p, err := s.service.ApproveRequest(s.ctx, admin, bob)
	s.Require().NoError(err)
	s.Equal(id.RoleDistributor, p.Role)
	s.Equal("Dist Co", p.Name)

	record, err := s.service.PendingRequest(s.ctx, bob)
	s.Require().NoError(err)
	s.False(record.Pending)
	s.Equal(models.DecisionApproved, record.Decision)

	pendingIDs, err = s.service.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Empty(pendingIDs)

	s.Equal([]events.Type{events.TypeRequested, events.TypeApproved, events.TypeRegistered}, s.eventTypes())

	_, err = s.service.RequestRegistration(s.ctx, carol, id.RoleRetailer, "Shop")
	s.Require().NoError(err)
	_, err = s.service.RejectRequest(s.ctx, admin, carol)
	s.Require().NoError(err)

	ok, err := s.service.IsRegistered(s.ctx, carol)
	s.Require().NoError(err)
	s.False(ok)
	record, err = s.service.PendingRequest(s.ctx, carol)
	s.Require().NoError(err)
	s.Equal(models.DecisionRejected, record.Decision)

	s.Equal(events.TypeRejected, s.eventTypes()[len(s.eventTypes())-1])
}

func (s *ServiceSuite) TestRequestRegistrationFailures() {
	_, err := s.service.Register(s.ctx, admin, alice, id.RoleManufacturer, "Acme")
	s.Require().NoError(err)

	_, err = s.service.RequestRegistration(s.ctx, bob, id.RoleNone, "")
	s.requireCode(err, dErrors.CodeInvalidRole)

	_, err = s.service.RequestRegistration(s.ctx, bob, id.RoleRetailer, "")
	s.requireCode(err, dErrors.CodeValidation)

	_, err = s.service.RequestRegistration(s.ctx, alice, id.RoleRetailer, "Acme")
	s.requireCode(err, dErrors.CodeAlreadyRegistered)

	_, err = s.service.RequestRegistration(s.ctx, bob, id.RoleRetailer, "Shop")
	s.Require().NoError(err)
	_, err = s.service.RequestRegistration(s.ctx, bob, id.RoleCustomer, "Shop")
	s.requireCode(err, dErrors.CodeRequestAlreadyPending)

	pendingIDs, err := s.service.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal([]id.Identity{bob}, pendingIDs, "failed requests leave no trace in the index")
}

func (s *ServiceSuite) TestRejectedIdentityMayRequestAgain() {
	_, err := s.service.RequestRegistration(s.ctx, bob, id.RoleRetailer, "Shop")
	s.Require().NoError(err)
	_, err = s.service.RejectRequest(s.ctx, admin, bob)
	s.Require().NoError(err)

	req, err := s.service.RequestRegistration(s.ctx, bob, id.RoleCustomer, "Bob")
	s.Require().NoError(err)
	s.True(req.Pending)
	s.Equal(id.RoleCustomer, req.RequestedRole)
}

func (s *ServiceSuite) TestDecisionsRequireAdminAndPendingRequest() {
	_, err := s.service.RequestRegistration(s.ctx, bob, id.RoleRetailer, "Shop")
	s.Require().NoError(err)

	_, err = s.service.ApproveRequest(s.ctx, bob, bob)
	s.requireCode(err, dErrors.CodeUnauthorized)
	_, err = s.service.RejectRequest(s.ctx, alice, bob)
	s.requireCode(err, dErrors.CodeUnauthorized)
	_, err = s.service.PendingIdentities(s.ctx, bob)
	s.requireCode(err, dErrors.CodeUnauthorized)

	_, err = s.service.ApproveRequest(s.ctx, admin, carol)
	s.requireCode(err, dErrors.CodeNotFound)
	_, err = s.service.RejectRequest(s.ctx, admin, carol)
	s.requireCode(err, dErrors.CodeNotFound)

	_, err = s.service.ApproveRequest(s.ctx, admin, bob)
	s.Require().NoError(err)
	_, err = s.service.ApproveRequest(s.ctx, admin, bob)
	s.requireCode(err, dErrors.CodeNotFound)
	_, err = s.service.PendingRequest(s.ctx, carol)
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestPendingOrderAfterRemoval() {
	for _, who := range []id.Identity{alice, bob, carol, mallory} {
		_, err := s.service.RequestRegistration(s.ctx, who, id.RoleCustomer, "C")
		s.Require().NoError(err)
	}
	_, err := s.service.RejectRequest(s.ctx, admin, alice)
	s.Require().NoError(err)

	pendingIDs, err := s.service.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal([]id.Identity{mallory, bob, carol}, pendingIDs)
}

func (s *ServiceSuite) TestParticipantPendingExclusivity() {
	const workers = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	_, err := s.service.RequestRegistration(s.ctx, bob, id.RoleRetailer, "Shop")
	s.Require().NoError(err)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = s.service.ApproveRequest(s.ctx, admin, bob)
			} else {
				_, err = s.service.RejectRequest(s.ctx, admin, bob)
			}
			if err == nil {
				succeeded.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load(), "exactly one decision wins")
	record, err := s.service.PendingRequest(s.ctx, bob)
	s.Require().NoError(err)
	s.False(record.Pending)

	registered, err := s.service.IsRegistered(s.ctx, bob)
	s.Require().NoError(err)
	s.Equal(record.Decision == models.DecisionApproved, registered)
}
