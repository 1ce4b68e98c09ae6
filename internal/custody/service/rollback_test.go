package service

import (
	"context"
	"errors"
	"sync"

	"custody/internal/custody/models"
	"custody/internal/custody/store/item"
	events "custody/internal/events/models"
	"custody/internal/platform/memtx"
	dErrors "custody/pkg/domain-errors"
)

// failingHistory fails every Append after running onAppend, which sees the
// transaction midway: the item write before it has already succeeded.
type failingHistory struct {
	HistoryStore
	onAppend func()
}

func (h *failingHistory) Append(context.Context, *models.HistoryEntry) error {
	if h.onAppend != nil {
		h.onAppend()
	}
	return errors.New("history unavailable")
}

type failingOutbox struct{}

func (failingOutbox) Append(context.Context, *events.Envelope) error {
	return errors.New("outbox unavailable")
}

// pair returns a working ledger and one whose stores fail as configured. Both
// share the item store and the transaction lanes.
func (s *LedgerSuite) pair(historyStore HistoryStore, box Outbox) (*Service, *Service) {
	items := item.NewInMemory()
	lanes := memtx.NewLanes(0)
	good := New(Stores{Items: items, History: s.history, Outbox: s.outbox}, s.registry, WithTx(lanes))
	broken := New(Stores{Items: items, History: historyStore, Outbox: box}, s.registry, WithTx(lanes))
	return good, broken
}

func (s *LedgerSuite) TestFailedRegistrationLeavesNoTrace() {
	failing := &failingHistory{HistoryStore: s.history}
	good, broken := s.pair(failing, s.outbox)

	failing.onAppend = func() {
		_, err := good.Item(context.Background(), 1)
		s.requireCode(err, dErrors.CodeNotFound)
		n, err := good.TotalItems(context.Background())
		s.Require().NoError(err)
		s.Zero(n)
	}
	_, err := broken.RegisterItem(s.ctx, acme, "Widget", "desc")
	s.requireCode(err, dErrors.CodeInternal)

	_, err = good.Item(s.ctx, 1)
	s.requireCode(err, dErrors.CodeNotFound)
	n, err := good.TotalItems(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
	s.Empty(s.outbox.Entries())

	widget, err := good.RegisterItem(s.ctx, acme, "Widget", "desc")
	s.Require().NoError(err)
	s.Equal(int64(1), widget.ID, "the failed registration gives its id back")
}

func (s *LedgerSuite) TestTransferFailingAfterItemUpdateLeavesNoTrace() {
	failing := &failingHistory{HistoryStore: s.history}
	good, broken := s.pair(failing, s.outbox)
	widget, err := good.RegisterItem(s.ctx, acme, "Widget", "desc")
	s.Require().NoError(err)

	assertUntouched := func(ctx context.Context) {
		current, err := good.Item(ctx, widget.ID)
		s.Require().NoError(err)
		s.Equal(acme, current.CurrentHolder)
		s.Equal(models.StatusManufactured, current.Status)
		log, err := good.HistoryOf(ctx, widget.ID)
		s.Require().NoError(err)
		s.Len(log, 1)
	}
	failing.onAppend = func() { assertUntouched(context.Background()) }

	_, err = broken.TransferItem(s.ctx, acme, widget.ID, shipper, models.StatusInTransit, "")
	s.requireCode(err, dErrors.CodeInternal)

	assertUntouched(s.ctx)
	s.Equal([]events.Type{events.TypeItemRegistered}, s.eventTypes())
}

func (s *LedgerSuite) TestTransferFailingAtNotificationLeavesNoTrace() {
	good, broken := s.pair(s.history, failingOutbox{})
	widget, err := good.RegisterItem(s.ctx, acme, "Widget", "desc")
	s.Require().NoError(err)

	_, err = broken.TransferItem(s.ctx, acme, widget.ID, shipper, models.StatusInTransit, "")
	s.requireCode(err, dErrors.CodeInternal)

	current, err := good.Item(s.ctx, widget.ID)
	s.Require().NoError(err)
	s.Equal(acme, current.CurrentHolder)
	log, err := good.HistoryOf(s.ctx, widget.ID)
	s.Require().NoError(err)
	s.Len(log, 1, "the history entry written before the failure is dropped")
	s.Equal([]events.Type{events.TypeItemRegistered}, s.eventTypes())

	_, err = good.TransferItem(s.ctx, acme, widget.ID, shipper, models.StatusInTransit, "")
	s.Require().NoError(err)
	log, err = good.HistoryOf(s.ctx, widget.ID)
	s.Require().NoError(err)
	s.Require().Len(log, 2)
	s.Equal(2, log[1].Seq)
}

func (s *LedgerSuite) TestCountedItemsAlwaysHaveHistory() {
	const n = 30
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, err := s.service.RegisterItem(s.ctx, acme, "Widget", "desc")
			s.NoError(err)
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			total, err := s.service.TotalItems(s.ctx)
			s.Require().NoError(err)
			s.Equal(int64(n), total)
			return
		default:
		}
		total, err := s.service.TotalItems(s.ctx)
		s.Require().NoError(err)
		if total == 0 {
			continue
		}
		log, err := s.service.HistoryOf(s.ctx, total)
		s.Require().NoError(err)
		s.Len(log, 1)
		s.Equal(acme, log[0].To)
	}
}
