package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/core/services"
	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/SscSPs/exchanger/internal/middleware"
	"github.com/SscSPs/exchanger/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ExchangeRateServiceTestSuite struct {
	suite.Suite
	env     *rateEnv
	metrics *metrics.Metrics
	service portssvc.ExchangeRateSvcFacade
	ctx     context.Context
}

func (suite *ExchangeRateServiceTestSuite) SetupTest() {
	suite.env = newRateEnv(suite.T())
	suite.metrics = metrics.New(prometheus.NewRegistry())
	suite.service = services.NewExchangeRateService(
		suite.env.repos.ExchangeRateRepo,
		suite.env.repos.ProviderRepo,
		suite.env.factory,
		services.WithCurrencyValidation(services.NewCurrencyService(suite.env.repos.CurrencyRepo)),
		services.WithExchangeRateMetrics(suite.metrics),
		services.WithProviderTimeout(time.Second),
	)
	suite.ctx = middleware.WithActor(context.Background(), "tester")
}

func (suite *ExchangeRateServiceTestSuite) TestResolveAndPersist_FallsBackToNextProvider() {
	suite.env.primary.failAll()
	suite.env.secondary.On("Resolve", mock.Anything, "EUR", "USD", day("2024-02-01")).Return(dec("1.20"), nil).Once()

	stored, err := suite.service.ResolveAndPersist(suite.ctx, "EUR", "USD", day("2024-02-01"))

	suite.Require().NoError(err)
	suite.True(stored.Rate.Equal(dec("1.2")), "got %s", stored.Rate)
	suite.Equal("tester", stored.CreatedBy)

	inverse, err := suite.env.repos.ExchangeRateRepo.FindExchangeRate(suite.ctx, "USD", "EUR", day("2024-02-01"))
	suite.Require().NoError(err)
	suite.Equal("0.8333333333", inverse.Rate.String())

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RatesPersistedTotal))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.ProviderCallsTotal.WithLabelValues("primary", metrics.OutcomeFailure)))
	suite.env.secondary.AssertExpectations(suite.T())
}

func (suite *ExchangeRateServiceTestSuite) TestGetExchangeRate_CachedRowSkipsProviders() {
	suite.env.primary.failAll()
	suite.env.secondary.On("Resolve", mock.Anything, "EUR", "USD", day("2024-02-01")).Return(dec("1.20"), nil).Once()
	req := dto.GetExchangeRateRequest{SourceCurrency: "eur", TargetCurrency: "usd", Date: "2024-02-01"}

	first, err := suite.service.GetExchangeRate(suite.ctx, req)
	suite.Require().NoError(err)
	second, err := suite.service.GetExchangeRate(suite.ctx, req)
	suite.Require().NoError(err)

	suite.Equal(first.ExchangeRateID, second.ExchangeRateID)
	suite.True(second.Rate.Equal(dec("1.2")))
	suite.env.secondary.AssertNumberOfCalls(suite.T(), "Resolve", 1)
	suite.env.primary.AssertNumberOfCalls(suite.T(), "Resolve", 1)
}

func (suite *ExchangeRateServiceTestSuite) TestResolveAndPersist_AllProvidersFail() {
	suite.env.primary.failAll()
	suite.env.secondary.failAll()

	stored, err := suite.service.ResolveAndPersist(suite.ctx, "EUR", "GBP", day("2024-02-01"))

	suite.Nil(stored)
	suite.ErrorIs(err, apperrors.ErrNoDataAvailable)

	_, err = suite.env.repos.ExchangeRateRepo.FindExchangeRate(suite.ctx, "EUR", "GBP", day("2024-02-01"))
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ExchangeRateServiceTestSuite) TestResolveAndPersist_IdentityNeverCallsProviders() {
	stored, err := suite.service.ResolveAndPersist(suite.ctx, "usd", "USD", day("2024-02-01"))

	suite.Require().NoError(err)
	suite.Equal("1", stored.Rate.String())
	suite.Equal(day("2024-02-01"), stored.DateEffective)
	suite.env.primary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.env.secondary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeRateServiceTestSuite) TestResolveAndPersist_CancelledContext() {
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	_, err := suite.service.ResolveAndPersist(ctx, "EUR", "USD", day("2024-02-01"))

	suite.ErrorIs(err, context.Canceled)
	suite.env.primary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeRateServiceTestSuite) TestGetExchangeRate_RejectsUnknownCurrency() {
	_, err := suite.service.GetExchangeRate(suite.ctx, dto.GetExchangeRateRequest{SourceCurrency: "EUR", TargetCurrency: "JPY", Date: "2024-02-01"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.GetExchangeRate(suite.ctx, dto.GetExchangeRateRequest{SourceCurrency: "EUR", TargetCurrency: "USD", Date: "01/02/2024"})
	suite.ErrorIs(err, apperrors.ErrMalformedInput)
}

func (suite *ExchangeRateServiceTestSuite) TestImportExchangeRates() {
	n, err := suite.service.ImportExchangeRates(suite.ctx, []dto.ImportExchangeRateRow{
		{SourceCurrency: "EUR", TargetCurrency: "USD", Date: "2024-01-02", Rate: "1.10"},
		{SourceCurrency: "eur", TargetCurrency: "gbp", Date: "2024-01-02", Rate: "0.85"},
	}, "import:ops")

	suite.Require().NoError(err)
	suite.Equal(2, n)

	stored, err := suite.env.repos.ExchangeRateRepo.FindExchangeRate(suite.ctx, "GBP", "EUR", day("2024-01-02"))
	suite.Require().NoError(err)
	suite.Equal("import:ops", stored.CreatedBy)
}

func (suite *ExchangeRateServiceTestSuite) TestImportExchangeRates_InvalidRowWritesNothing() {
	_, err := suite.service.ImportExchangeRates(suite.ctx, []dto.ImportExchangeRateRow{
		{SourceCurrency: "EUR", TargetCurrency: "USD", Date: "2024-01-02", Rate: "1.10"},
		{SourceCurrency: "EUR", TargetCurrency: "GBP", Date: "2024-01-02", Rate: "-0.85"},
	}, "import:ops")

	suite.ErrorIs(err, apperrors.ErrInvalidRate)
	suite.Contains(err.Error(), "import row 2")

	rates, err := suite.env.repos.ExchangeRateRepo.ListExchangeRates(suite.ctx, "EUR", day("2024-01-01"), day("2024-01-31"))
	suite.Require().NoError(err)
	suite.Empty(rates)
}

func (suite *ExchangeRateServiceTestSuite) TestImportExchangeRates_UnknownCurrency() {
	_, err := suite.service.ImportExchangeRates(suite.ctx, []dto.ImportExchangeRateRow{
		{SourceCurrency: "EUR", TargetCurrency: "JPY", Date: "2024-01-02", Rate: "160"},
	}, "import:ops")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestExchangeRateService(t *testing.T) {
	suite.Run(t, new(ExchangeRateServiceTestSuite))
}
