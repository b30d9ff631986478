package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"travelproof/internal/platform/events"
	"travelproof/internal/platform/logger"
	"travelproof/internal/travel/chain"
	"travelproof/internal/travel/models"
	"travelproof/internal/travel/service/mocks"
	dErrors "travelproof/pkg/domain-errors"
	"travelproof/pkg/requestcontext"
)

const wallet = "0x00000000000000000000000000000000000000aA"

type IssuanceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	gateway   *mocks.MockGateway
	publisher *mocks.MockEventPublisher
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestIssuanceSuite(t *testing.T) {
	suite.Run(t, new(IssuanceSuite))
}

func (s *IssuanceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.publisher = mocks.NewMockEventPublisher(s.ctrl)
	s.service = New(s.gateway, s.publisher, logger.Discard())
	s.now = time.Date(2024, 7, 14, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *IssuanceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func sanFrancisco() models.TravelClaim {
	return models.TravelClaim{
		WalletAddress: wallet,
		Country:       "United States",
		CountryCode:   "us",
		Coordinates:   []float64{37.7749, -122.4194},
	}
}

func (s *IssuanceSuite) TestMissingCoordinatesMakesNoChainCalls() {
	claim := sanFrancisco()
	claim.Coordinates = nil

	// No gateway expectations: any chain call fails the test.
	_, err := s.service.IssueProof(s.ctx, claim)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *IssuanceSuite) TestMissingFieldsAreClientErrors() {
	for name, mutate := range map[string]func(*models.TravelClaim){
		"wallet":       func(c *models.TravelClaim) { c.WalletAddress = "" },
		"country":      func(c *models.TravelClaim) { c.Country = "  " },
		"country code": func(c *models.TravelClaim) { c.CountryCode = "" },
	} {
		s.Run(name, func() {
			claim := sanFrancisco()
			mutate(&claim)
			_, err := s.service.IssueProof(s.ctx, claim)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *IssuanceSuite) TestNotConfigured() {
	s.gateway.EXPECT().CanMint().Return(false)
	_, err := s.service.IssueProof(s.ctx, sanFrancisco())
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))

	unconfigured := New(nil, nil, logger.Discard())
	_, err = unconfigured.IssueProof(s.ctx, sanFrancisco())
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}

func (s *IssuanceSuite) TestIssueProofMintsWithEncodedCoordinates() {
	gomock.InOrder(
		s.gateway.EXPECT().CanMint().Return(true),
		s.gateway.EXPECT().HasVisited(gomock.Any(), wallet, "US").Return(false),
		s.gateway.EXPECT().MintProof(gomock.Any(), wallet, "US", "United States", int64(377749000), int64(-1224194000)).
			Return("0xfeed", nil),
	)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) error {
		s.Equal(events.TypePoapMinted, ev.Type)
		s.Equal("0xfeed", ev.TxHash)
		return nil
	})

	rec, err := s.service.IssueProof(s.ctx, sanFrancisco())

	s.Require().NoError(err)
	s.NotEmpty(rec.ID)
	s.NotEmpty(rec.ProofReference)
	s.NotEqual(rec.ID, rec.ProofReference)
	s.Equal("0xfeed", rec.TxHash)
	s.Equal("US", rec.CountryCode)
	s.Equal([2]float64{37.7749, -122.4194}, rec.Coordinates)
	s.True(rec.MintedAt.Equal(s.now))
}

func (s *IssuanceSuite) TestSecondIssuanceIsDuplicate() {
	s.gateway.EXPECT().CanMint().Return(true).Times(2)
	gomock.InOrder(
		s.gateway.EXPECT().HasVisited(gomock.Any(), wallet, "US").Return(false),
		s.gateway.EXPECT().MintProof(gomock.Any(), wallet, "US", gomock.Any(), gomock.Any(), gomock.Any()).Return("0x1", nil),
		s.gateway.EXPECT().HasVisited(gomock.Any(), wallet, "US").Return(true),
	)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := s.service.IssueProof(s.ctx, sanFrancisco())
	s.Require().NoError(err)

	_, err = s.service.IssueProof(s.ctx, sanFrancisco())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(MessageAlreadyVisited, dErrors.MessageOf(err))
}

func (s *IssuanceSuite) TestContractDuplicateRevertIsDuplicate() {
	s.gateway.EXPECT().CanMint().Return(true)
	s.gateway.EXPECT().HasVisited(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	s.gateway.EXPECT().MintProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", chain.NewError(chain.ErrorDuplicateVisit, "mintProof", "country already visited", nil))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) error {
		s.Equal(events.TypeDuplicateVisit, ev.Type)
		s.Equal("contract", ev.Reason)
		return nil
	})

	_, err := s.service.IssueProof(s.ctx, sanFrancisco())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *IssuanceSuite) TestMintFailureCarriesMessage() {
	s.gateway.EXPECT().CanMint().Return(true)
	s.gateway.EXPECT().HasVisited(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	s.gateway.EXPECT().MintProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", chain.NewError(chain.ErrorInsufficientFunds, "mintProof", "minter account cannot pay for gas", errors.New("rpc")))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	_, err := s.service.IssueProof(s.ctx, sanFrancisco())

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Contains(dErrors.MessageOf(err), "minter account cannot pay for gas")
	s.Equal(chain.ErrorInsufficientFunds, chain.CategoryOf(err))
}

func (s *IssuanceSuite) TestVisitedCountries() {
	s.Run("lists countries", func() {
		s.gateway.EXPECT().ListVisitedCountries(gomock.Any(), wallet).Return([]string{"FR", "jp", "FR"}, nil)
		got, err := s.service.VisitedCountries(s.ctx, wallet)
		s.Require().NoError(err)
		s.Equal([]string{"FR", "JP"}, got)
	})

	s.Run("transient chain errors are unavailable", func() {
		s.gateway.EXPECT().ListVisitedCountries(gomock.Any(), wallet).
			Return(nil, chain.NewError(chain.ErrorTimeout, "getVisitedCountries", "slow", nil))
		_, err := s.service.VisitedCountries(s.ctx, wallet)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("missing wallet", func() {
		_, err := s.service.VisitedCountries(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("malformed wallet", func() {
		_, err := s.service.VisitedCountries(s.ctx, "0x12")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *IssuanceSuite) TestHasVisited() {
	s.gateway.EXPECT().HasVisited(gomock.Any(), wallet, "FR").Return(true)
	visited, err := s.service.HasVisited(s.ctx, wallet, " fr ")
	s.Require().NoError(err)
	s.True(visited)

	_, err = s.service.HasVisited(s.ctx, wallet, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
