package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"travelproof/internal/identity/handler/mocks"
	"travelproof/internal/identity/models"
	"travelproof/internal/platform/logger"
	dErrors "travelproof/pkg/domain-errors"
	"travelproof/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type IdentityHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, logger.Discard(), true).Register(s.router)
}

func (s *IdentityHandlerSuite) TestSubmitProof() {
	s.Run("incomplete data still answers 200", func() {
		s.service.EXPECT().SubmitProof(gomock.Any(), gomock.Any()).Return(&models.SubmitProofResponse{
			Status: "success", Result: false, Message: "Verification data incomplete",
		})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/verify",
			map[string]any{"proof": map[string]any{"a": 1}, "publicSignals": []any{}})

		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[models.SubmitProofResponse](s.T(), rr)
		s.Equal("success", resp.Status)
		s.False(resp.Result)
		s.Equal("Verification data incomplete", resp.Message)
	})

	s.Run("query userId is used when the body omits it", func() {
		s.service.EXPECT().SubmitProof(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req models.SubmitProofRequest) *models.SubmitProofResponse {
				s.Equal("wallet-session", req.UserID)
				return &models.SubmitProofResponse{Status: "success", Result: true, Message: "ok"}
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/verify?userId=wallet-session",
			map[string]any{"proof": "p", "publicSignals": []any{"1"}})

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("body userId takes precedence over query", func() {
		s.service.EXPECT().SubmitProof(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req models.SubmitProofRequest) *models.SubmitProofResponse {
				s.Equal("from-body", req.UserID)
				return &models.SubmitProofResponse{Status: "success"}
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/verify?userId=from-query",
			map[string]any{"proof": "p", "publicSignals": []any{"1"}, "userId": "from-body"})
		testutil.DoRequest(s.router, req)
	})

	s.Run("unparseable body is a 400", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/verify", "{not json")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *IdentityHandlerSuite) TestFetchRecord() {
	s.Run("match returns 200 with the record", func() {
		rec := &models.IdentityRecord{
			SessionID:  "user-1",
			SubjectID:  "subject-1",
			VerifiedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		s.service.EXPECT().FetchRecord(gomock.Any(), "user-1").Return(rec, "Verification record found", nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/verify/result?userId=user-1"))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[models.FetchRecordResponse](s.T(), rr)
		s.Equal("success", resp.Status)
		s.Require().NotNil(resp.PassportData)
		s.Equal("subject-1", resp.PassportData.SubjectID)
	})

	s.Run("missing userId is a 400", func() {
		s.service.EXPECT().FetchRecord(gomock.Any(), "").Return(nil, "", dErrors.New(dErrors.CodeBadRequest, "userId is required"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/verify/result"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("no match is a 404 listing known keys", func() {
		s.service.EXPECT().FetchRecord(gomock.Any(), "ghost").Return(nil, "", dErrors.New(dErrors.CodeNotFound, "no verification record for user"))
		s.service.EXPECT().KnownKeys(gomock.Any()).Return([]string{"user-1"})

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/verify/result?userId=ghost"))

		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
		resp := testutil.UnmarshalResponse[models.FetchRecordResponse](s.T(), rr)
		s.Equal([]string{"user-1"}, resp.KnownKeys)
	})

	s.Run("internal errors are 500", func() {
		s.service.EXPECT().FetchRecord(gomock.Any(), "user-2").Return(nil, "", dErrors.New(dErrors.CodeInternal, "boom"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/verify/result?userId=user-2"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})
}

func (s *IdentityHandlerSuite) TestKeysHiddenWhenNotExposed() {
	router := chi.NewRouter()
	New(s.service, logger.Discard(), false).Register(router)
	s.service.EXPECT().FetchRecord(gomock.Any(), "ghost").Return(nil, "", dErrors.New(dErrors.CodeNotFound, "no verification record for user"))

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/api/verify/result?userId=ghost"))

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	resp := testutil.UnmarshalResponse[models.FetchRecordResponse](s.T(), rr)
	s.Empty(resp.KnownKeys)
}
