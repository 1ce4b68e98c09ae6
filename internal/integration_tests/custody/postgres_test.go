//go:build integration

package custody

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custody/internal/custody/models"
	custodyservice "custody/internal/custody/service"
	"custody/internal/custody/store/history"
	"custody/internal/custody/store/item"
	events "custody/internal/events/models"
	"custody/internal/events/outbox"
	identityservice "custody/internal/identity/service"
	"custody/internal/identity/store/participant"
	"custody/internal/identity/store/pending"
	"custody/internal/identity/store/request"
	"custody/internal/platform/postgres"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/testutil/containers"
)

var (
	admin   = id.MustParseIdentity("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	maker   = id.MustParseIdentity("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	freight = id.MustParseIdentity("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	haulage = id.MustParseIdentity("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
	corner  = id.MustParseIdentity("0x52908400098527886E0F7030069857D2E4169EE7")
)

// PostgresSuite runs both services against one migrated Postgres database.
type PostgresSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	events   *outbox.Postgres
	identity *identityservice.Service
	ledger   *custodyservice.Service
	ctx      context.Context
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.pg.TruncateTables(s.ctx, containers.AllTables...))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.events = outbox.NewPostgres(s.pg.DB)
	s.identity = identityservice.New(identityservice.Stores{
		Participants: participant.NewPostgres(s.pg.DB),
		Requests:     request.NewPostgres(s.pg.DB),
		Pending:      pending.NewPostgres(s.pg.DB),
		Outbox:       s.events,
	}, admin,
		identityservice.WithLogger(logger),
		identityservice.WithTx(postgres.NewTx(s.pg.DB, postgres.WithAdvisoryLock(42), postgres.WithTimeout(5*time.Second))),
	)
	s.ledger = custodyservice.New(custodyservice.Stores{
		Items:   item.NewPostgres(s.pg.DB),
		History: history.NewPostgres(s.pg.DB),
		Outbox:  s.events,
	}, s.identity,
		custodyservice.WithLogger(logger),
		custodyservice.WithTx(postgres.NewTx(s.pg.DB, postgres.WithTimeout(5*time.Second))),
	)
}

// failOnType queues notifications through the real outbox except for one
// type, which fails the surrounding transaction after every earlier write.
type failOnType struct {
	*outbox.Postgres
	fail events.Type
}

func (o failOnType) Append(ctx context.Context, env *events.Envelope) error {
	if env.Type == o.fail {
		return errors.New("outbox unavailable")
	}
	return o.Postgres.Append(ctx, env)
}

func (s *PostgresSuite) brokenLedger(fail events.Type) *custodyservice.Service {
	return custodyservice.New(custodyservice.Stores{
		Items:   item.NewPostgres(s.pg.DB),
		History: history.NewPostgres(s.pg.DB),
		Outbox:  failOnType{Postgres: s.events, fail: fail},
	}, s.identity,
		custodyservice.WithTx(postgres.NewTx(s.pg.DB, postgres.WithTimeout(5*time.Second))),
	)
}

func (s *PostgresSuite) enroll(identity id.Identity, role id.Role) {
	_, err := s.identity.Register(s.ctx, admin, identity, role, role.String())
	s.Require().NoError(err)
}

func (s *PostgresSuite) pendingTypes() []events.Type {
	batch, err := s.events.Pending(s.ctx, 100)
	s.Require().NoError(err)
	types := make([]events.Type, 0, len(batch))
	for _, env := range batch {
		types = append(types, env.Type)
	}
	return types
}

func (s *PostgresSuite) TestApprovalQueuesApprovedBeforeRegistered() {
	_, err := s.identity.RequestRegistration(s.ctx, maker, id.RoleManufacturer, "Acme")
	s.Require().NoError(err)

	p, err := s.identity.ApproveRequest(s.ctx, admin, maker)
	s.Require().NoError(err)
	s.Equal(id.RoleManufacturer, p.Role)

	role, err := s.identity.RoleOf(s.ctx, maker)
	s.Require().NoError(err)
	s.Equal(id.RoleManufacturer, role)

	s.Equal([]events.Type{events.TypeRequested, events.TypeApproved, events.TypeRegistered}, s.pendingTypes())
}

func (s *PostgresSuite) TestPendingIndexSwapAndPop() {
	for _, identity := range []id.Identity{maker, freight, haulage, corner} {
		_, err := s.identity.RequestRegistration(s.ctx, identity, id.RoleDistributor, "d")
		s.Require().NoError(err)
	}

	_, err := s.identity.RejectRequest(s.ctx, admin, freight)
	s.Require().NoError(err)

	got, err := s.identity.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal([]id.Identity{maker, corner, haulage}, got)
}

func (s *PostgresSuite) TestItemLifecycle() {
	s.enroll(maker, id.RoleManufacturer)
	s.enroll(freight, id.RoleDistributor)

	first, err := s.ledger.RegisterItem(s.ctx, maker, "Widget", "Blue widget")
	s.Require().NoError(err)
	s.Equal(int64(1), first.ID)
	second, err := s.ledger.RegisterItem(s.ctx, maker, "Gadget", "Red gadget")
	s.Require().NoError(err)
	s.Equal(int64(2), second.ID)

	moved, err := s.ledger.TransferItem(s.ctx, maker, first.ID, freight, models.StatusInTransit, "on the truck")
	s.Require().NoError(err)
	s.Equal(freight, moved.CurrentHolder)
	s.Equal(maker, moved.OriginManufacturer)

	entries, err := s.ledger.HistoryOf(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.True(entries[0].From.IsZero())
	s.Equal(models.ManufacturedNote, entries[0].Notes)
	s.Equal(maker, entries[1].From)
	s.Equal(freight, entries[1].To)
	s.Equal("on the truck", entries[1].Notes)

	total, err := s.ledger.TotalItems(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
}

func (s *PostgresSuite) TestRejectedTransferLeavesNoTrace() {
	s.enroll(maker, id.RoleManufacturer)
	s.enroll(corner, id.RoleRetailer)

	it, err := s.ledger.RegisterItem(s.ctx, maker, "Widget", "Blue widget")
	s.Require().NoError(err)
	before := len(s.pendingTypes())

	_, err = s.ledger.TransferItem(s.ctx, maker, it.ID, corner, models.StatusInTransit, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidRoleTransition))

	got, err := s.ledger.Item(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal(maker, got.CurrentHolder)
	s.Equal(models.StatusManufactured, got.Status)

	entries, err := s.ledger.HistoryOf(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Len(s.pendingTypes(), before)
}

func (s *PostgresSuite) TestConcurrentTransfersHaveOneWinner() {
	s.enroll(maker, id.RoleManufacturer)
	s.enroll(freight, id.RoleDistributor)
	s.enroll(haulage, id.RoleDistributor)

	it, err := s.ledger.RegisterItem(s.ctx, maker, "Widget", "Blue widget")
	s.Require().NoError(err)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2)
	)
	for i, to := range []id.Identity{freight, haulage} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = s.ledger.TransferItem(s.ctx, maker, it.ID, to, models.StatusInTransit, "")
		}()
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "unexpected error: %v", err)
	}
	s.Equal(1, wins)

	entries, err := s.ledger.HistoryOf(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *PostgresSuite) TestConcurrentRegistrationsGetDistinctIDs() {
	s.enroll(maker, id.RoleManufacturer)

	const n = 10
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			it, err := s.ledger.RegisterItem(s.ctx, maker, "Widget", "Blue widget")
			if s.NoError(err) {
				ids <- it.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for itemID := range ids {
		s.False(seen[itemID], "duplicate id %d", itemID)
		seen[itemID] = true
		s.GreaterOrEqual(itemID, int64(1))
		s.LessOrEqual(itemID, int64(n))
	}
	s.Len(seen, n)
}

func (s *PostgresSuite) TestFailedRegistrationReleasesItemID() {
	s.enroll(maker, id.RoleManufacturer)
	before := len(s.pendingTypes())

	_, err := s.brokenLedger(events.TypeItemRegistered).RegisterItem(s.ctx, maker, "Widget", "Blue widget")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal), "unexpected error: %v", err)

	total, err := s.ledger.TotalItems(s.ctx)
	s.Require().NoError(err)
	s.Zero(total)
	_, err = s.ledger.HistoryOf(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Len(s.pendingTypes(), before)

	it, err := s.ledger.RegisterItem(s.ctx, maker, "Widget", "Blue widget")
	s.Require().NoError(err)
	s.Equal(int64(1), it.ID)
}

func (s *PostgresSuite) TestFailedTransferRollsBackItemAndHistory() {
	s.enroll(maker, id.RoleManufacturer)
	s.enroll(freight, id.RoleDistributor)
	it, err := s.ledger.RegisterItem(s.ctx, maker, "Widget", "Blue widget")
	s.Require().NoError(err)
	before := len(s.pendingTypes())

	_, err = s.brokenLedger(events.TypeTransferred).TransferItem(s.ctx, maker, it.ID, freight, models.StatusInTransit, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal), "unexpected error: %v", err)

	got, err := s.ledger.Item(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal(maker, got.CurrentHolder)
	s.Equal(models.StatusManufactured, got.Status)
	entries, err := s.ledger.HistoryOf(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Len(s.pendingTypes(), before)

	_, err = s.ledger.TransferItem(s.ctx, maker, it.ID, freight, models.StatusInTransit, "")
	s.Require().NoError(err)
	entries, err = s.ledger.HistoryOf(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(2, entries[1].Seq)
}

func (s *PostgresSuite) TestFailedApprovalKeepsRequestPending() {
	_, err := s.identity.RequestRegistration(s.ctx, freight, id.RoleDistributor, "Freight")
	s.Require().NoError(err)

	broken := identityservice.New(identityservice.Stores{
		Participants: participant.NewPostgres(s.pg.DB),
		Requests:     request.NewPostgres(s.pg.DB),
		Pending:      pending.NewPostgres(s.pg.DB),
		Outbox:       failOnType{Postgres: s.events, fail: events.TypeRegistered},
	}, admin,
		identityservice.WithTx(postgres.NewTx(s.pg.DB, postgres.WithAdvisoryLock(42), postgres.WithTimeout(5*time.Second))),
	)
	_, err = broken.ApproveRequest(s.ctx, admin, freight)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal), "unexpected error: %v", err)

	list, err := s.identity.PendingIdentities(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal([]id.Identity{freight}, list)
	r, err := s.identity.PendingRequest(s.ctx, freight)
	s.Require().NoError(err)
	s.True(r.Pending)
	role, err := s.identity.RoleOf(s.ctx, freight)
	s.Require().NoError(err)
	s.Equal(id.RoleNone, role)
	s.Equal([]events.Type{events.TypeRequested}, s.pendingTypes())
}
