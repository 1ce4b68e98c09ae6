package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custody/internal/custody/handler/mocks"
	"custody/internal/custody/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

var (
	acme    = id.MustParseIdentity("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	shipper = id.MustParseIdentity("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
)

type LedgerHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
	now     time.Time
}

func TestLedgerHandlerSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerSuite))
}

func (s *LedgerHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(s.service, logger).Register(r)
	s.router = r
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *LedgerHandlerSuite) as(caller id.Identity, req *http.Request) *http.Request {
	return testutil.WithCaller(req, caller)
}

func (s *LedgerHandlerSuite) widget(holder id.Identity, status models.Status) *models.Item {
	return &models.Item{
		ID: 1, Name: "Widget", Description: "desc",
		CurrentHolder: holder, OriginManufacturer: acme, Status: status,
		CreatedAt: s.now, LastUpdated: s.now,
	}
}

func (s *LedgerHandlerSuite) TestRegisterItem() {
	s.service.EXPECT().RegisterItem(gomock.Any(), acme, "Widget", "desc").
		Return(s.widget(acme, models.StatusManufactured), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items", RegisterItemRequest{Name: "Widget", Description: "desc"})
	rec := testutil.DoRequest(s.router, s.as(acme, req))

	testutil.AssertStatus(s.T(), rec, http.StatusCreated)
	body := testutil.UnmarshalResponse[ItemResponse](s.T(), rec)
	s.Equal(int64(1), body.ID)
	s.Equal(acme, body.CurrentHolder)
	s.Equal(models.StatusManufactured, body.Status)
}

func (s *LedgerHandlerSuite) TestRegisterItemRequiresCaller() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items", RegisterItemRequest{Name: "Widget", Description: "desc"})
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusForbidden, "unauthorized")
}

func (s *LedgerHandlerSuite) TestTransfer() {
	s.service.EXPECT().
		TransferItem(gomock.Any(), acme, int64(1), shipper, models.StatusInTransit, "pallet 4").
		Return(s.widget(shipper, models.StatusInTransit), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items/1/transfers", TransferRequest{
		To: shipper.Hex(), Status: "in_transit", Notes: "pallet 4",
	})
	rec := testutil.DoRequest(s.router, s.as(acme, req))

	testutil.AssertStatusOK(s.T(), rec)
	testutil.AssertJSONContains(s.T(), rec, "status", "InTransit")
}

func (s *LedgerHandlerSuite) TestTransferMapsDomainErrors() {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "item not found"), http.StatusNotFound},
		{"not holder", dErrors.New(dErrors.CodeUnauthorized, "not current holder"), http.StatusForbidden},
		{"recipient unregistered", dErrors.New(dErrors.CodeNotRegistered, "recipient"), http.StatusForbidden},
		{"role transition", dErrors.New(dErrors.CodeInvalidRoleTransition, "role"), http.StatusUnprocessableEntity},
		{"status transition", dErrors.New(dErrors.CodeInvalidStatusTransition, "status"), http.StatusUnprocessableEntity},
		{"notes too long", dErrors.New(dErrors.CodeValidation, "notes"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().
				TransferItem(gomock.Any(), acme, int64(7), shipper, models.StatusSold, "").
				Return(nil, tc.err)
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items/7/transfers", TransferRequest{
				To: shipper.Hex(), Status: "Sold",
			})
			rec := testutil.DoRequest(s.router, s.as(acme, req))
			testutil.AssertStatusAndError(s.T(), rec, tc.status, string(dErrors.CodeOf(tc.err)))
		})
	}
}

func (s *LedgerHandlerSuite) TestTransferRejectsMalformedInput() {
	cases := []struct {
		name string
		path string
		body string
		code string
	}{
		{"non numeric id", "/items/abc/transfers", `{"to":"` + shipper.Hex() + `","status":"InTransit"}`, "bad_request"},
		{"zero id", "/items/0/transfers", `{"to":"` + shipper.Hex() + `","status":"InTransit"}`, "bad_request"},
		{"bad recipient", "/items/1/transfers", `{"to":"0x1234","status":"InTransit"}`, "invalid_input"},
		{"unknown status", "/items/1/transfers", `{"to":"` + shipper.Hex() + `","status":"Lost"}`, "validation_error"},
		{"unknown field", "/items/1/transfers", `{"to":"` + shipper.Hex() + `","status":"InTransit","force":true}`, "bad_request"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := testutil.NewRequestWithBody(s.T(), http.MethodPost, tc.path, tc.body)
			rec := testutil.DoRequest(s.router, s.as(acme, req))
			testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, tc.code)
		})
	}
}

func (s *LedgerHandlerSuite) TestHistory() {
	s.service.EXPECT().HistoryOf(gomock.Any(), int64(1)).Return([]*models.HistoryEntry{
		{ItemID: 1, Seq: 1, To: acme, Status: models.StatusManufactured, Timestamp: s.now, Notes: models.ManufacturedNote},
		{ItemID: 1, Seq: 2, From: acme, To: shipper, Status: models.StatusInTransit, Timestamp: s.now},
	}, nil)

	rec := testutil.DoRequest(s.router, s.as(acme, testutil.NewRequest(s.T(), http.MethodGet, "/items/1/history")))

	testutil.AssertStatusOK(s.T(), rec)
	body := testutil.UnmarshalResponse[HistoryResponse](s.T(), rec)
	s.Require().Len(body.Entries, 2)
	s.Nil(body.Entries[0].From)
	s.Require().NotNil(body.Entries[1].From)
	s.Equal(acme, *body.Entries[1].From)
	s.Equal(models.StatusInTransit, body.Entries[1].Status)
}

func (s *LedgerHandlerSuite) TestGetItemAndCount() {
	s.service.EXPECT().Item(gomock.Any(), int64(1)).Return(s.widget(acme, models.StatusManufactured), nil)
	s.service.EXPECT().TotalItems(gomock.Any()).Return(int64(3), nil)

	rec := testutil.DoRequest(s.router, s.as(acme, testutil.NewRequest(s.T(), http.MethodGet, "/items/1")))
	testutil.AssertStatusOK(s.T(), rec)
	testutil.AssertJSONContains(s.T(), rec, "name", "Widget")

	rec = testutil.DoRequest(s.router, s.as(acme, testutil.NewRequest(s.T(), http.MethodGet, "/items/count")))
	testutil.AssertStatusOK(s.T(), rec)
	s.Equal(int64(3), testutil.UnmarshalResponse[CountResponse](s.T(), rec).Total)
}

func (s *LedgerHandlerSuite) TestInternalErrorHidesDetail() {
	s.service.EXPECT().Item(gomock.Any(), int64(2)).
		Return(nil, dErrors.New(dErrors.CodeInternal, "connection reset"))

	rec := testutil.DoRequest(s.router, s.as(acme, testutil.NewRequest(s.T(), http.MethodGet, "/items/2")))
	testutil.AssertStatusAndError(s.T(), rec, http.StatusInternalServerError, "internal_error")
}
