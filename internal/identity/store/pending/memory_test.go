package pending

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"custody/internal/platform/memtx"
	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
)

var (
	a = id.MustParseIdentity("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	b = id.MustParseIdentity("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	c = id.MustParseIdentity("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
)

type PendingStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestPendingStoreSuite(t *testing.T) {
	suite.Run(t, new(PendingStoreSuite))
}

func (s *PendingStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	for _, identity := range []id.Identity{a, b, c} {
		s.Require().NoError(s.store.Append(s.ctx, identity))
	}
}

func (s *PendingStoreSuite) list() []id.Identity {
	out, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	return out
}

func (s *PendingStoreSuite) TestSwapAndPop() {
	s.Require().NoError(s.store.Remove(s.ctx, a))
	s.Equal([]id.Identity{c, b}, s.list())
}

func (s *PendingStoreSuite) TestRemoveUnknown() {
	s.Require().NoError(s.store.Remove(s.ctx, a))
	s.ErrorIs(s.store.Remove(s.ctx, a), sentinel.ErrNotFound)
}

func (s *PendingStoreSuite) TestRollback() {
	lanes := memtx.NewLanes(0)

	err := lanes.RunInTx(s.ctx, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Remove(txCtx, b))
		return errors.New("abort")
	})
	s.Require().Error(err)
	s.Equal([]id.Identity{a, b, c}, s.list())

	err = lanes.RunInTx(s.ctx, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Append(txCtx, id.MustParseIdentity("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")))
		return errors.New("abort")
	})
	s.Require().Error(err)
	s.Equal([]id.Identity{a, b, c}, s.list())
}

func (s *PendingStoreSuite) TestChangesApplyAtCommitInOrder() {
	d := id.MustParseIdentity("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
	err := memtx.NewLanes(0).RunInTx(s.ctx, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Append(txCtx, d))
		s.Require().NoError(s.store.Remove(txCtx, a))
		s.Equal([]id.Identity{a, b, c}, s.list())
		return nil
	})
	s.Require().NoError(err)
	s.Equal([]id.Identity{d, b, c}, s.list())
}
