package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/exchanger/internal/apperrors"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/core/services"
	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type FinancialServiceTestSuite struct {
	suite.Suite
	env     *rateEnv
	service portssvc.FinancialSvc
	ctx     context.Context
}

// Today is 2024-03-15 for every test.
func (suite *FinancialServiceTestSuite) SetupTest() {
	suite.env = newRateEnv(suite.T())
	currencySvc := services.NewCurrencyService(suite.env.repos.CurrencyRepo)
	resolver := services.NewExchangeRateService(
		suite.env.repos.ExchangeRateRepo,
		suite.env.repos.ProviderRepo,
		suite.env.factory,
	)
	suite.service = services.NewFinancialService(
		suite.env.repos.ExchangeRateRepo,
		resolver,
		currencySvc,
		services.WithClock(fixedClock("2024-03-15")),
	)
	suite.ctx = context.Background()
}

func (suite *FinancialServiceTestSuite) TestConvert_LatestStoredRateWins() {
	suite.env.seed(suite.T(),
		rate("EUR", "USD", "1.05", "2023-06-01"),
		rate("EUR", "USD", "1.10", "2023-11-20"),
	)

	result, err := suite.service.Convert(suite.ctx, dto.ConvertRequest{SourceCurrency: "EUR", TargetCurrency: "USD", Amount: "100"})

	suite.Require().NoError(err)
	suite.True(result.Available)
	suite.Equal("110", result.ConvertedAmount.String())
	suite.Require().NotNil(result.AsOfDate)
	suite.Equal(day("2023-11-20"), *result.AsOfDate)
	suite.env.primary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FinancialServiceTestSuite) TestConvert_WalksBackUntilAProviderAnswers() {
	suite.env.primary.On("Resolve", mock.Anything, "EUR", "USD", day("2024-03-10")).Return(dec("1.2"), nil).Once()
	suite.env.primary.failAll()
	suite.env.secondary.failAll()

	result, err := suite.service.Convert(suite.ctx, dto.ConvertRequest{SourceCurrency: "EUR", TargetCurrency: "USD", Amount: "50"})

	suite.Require().NoError(err)
	suite.True(result.Available)
	suite.Equal("60", result.ConvertedAmount.String())
	suite.Equal(day("2024-03-10"), *result.AsOfDate)
	// Today and the four days before it failed.
	suite.env.primary.AssertNumberOfCalls(suite.T(), "Resolve", 6)
	suite.env.secondary.AssertNumberOfCalls(suite.T(), "Resolve", 5)
}

func (suite *FinancialServiceTestSuite) TestConvert_ExhaustedWindowReturnsZeroResult() {
	suite.env.primary.failAll()
	suite.env.secondary.failAll()

	result, err := suite.service.Convert(suite.ctx, dto.ConvertRequest{SourceCurrency: "EUR", TargetCurrency: "GBP", Amount: "100"})

	suite.Require().NoError(err)
	suite.False(result.Available)
	suite.True(result.Rate.IsZero())
	suite.True(result.ConvertedAmount.IsZero())
	suite.Nil(result.AsOfDate)
	suite.env.primary.AssertNumberOfCalls(suite.T(), "Resolve", services.DefaultConvertLookbackDays)
	suite.env.primary.AssertCalled(suite.T(), "Resolve", mock.Anything, "EUR", "GBP", day("2024-02-15"))
	suite.env.primary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, "EUR", "GBP", day("2024-02-14"))
}

func (suite *FinancialServiceTestSuite) TestConvert_Identity() {
	result, err := suite.service.Convert(suite.ctx, dto.ConvertRequest{SourceCurrency: "usd", TargetCurrency: "USD", Amount: "12.5"})

	suite.Require().NoError(err)
	suite.True(result.Available)
	suite.Equal("12.5", result.ConvertedAmount.String())
	suite.env.primary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FinancialServiceTestSuite) TestConvert_RejectsBadInput() {
	_, err := suite.service.Convert(suite.ctx, dto.ConvertRequest{SourceCurrency: "EUR", TargetCurrency: "USD", Amount: "-1"})
	suite.ErrorIs(err, apperrors.ErrMalformedInput)

	_, err = suite.service.Convert(suite.ctx, dto.ConvertRequest{SourceCurrency: "EUR", TargetCurrency: "JPY", Amount: "1"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinancialServiceTestSuite) TestTimeWeightedReturn() {
	suite.env.seed(suite.T(),
		rate("EUR", "USD", "1.12", "2024-01-15"),
		rate("EUR", "USD", "1.15", "2024-03-15"),
	)

	result, err := suite.service.TimeWeightedReturn(suite.ctx, dto.TimeWeightedReturnRequest{
		SourceCurrency: "EUR",
		TargetCurrency: "USD",
		Amount:         "100",
		StartDate:      "2024-01-15",
	})

	suite.Require().NoError(err)
	suite.Equal("112", result.AmountInTarget.String())
	suite.Equal("97.39", result.FinalAmount.Round(2).String())
	suite.Equal("-2.61", result.TWRPercentage.Round(2).String())
	suite.Equal(day("2024-03-15"), result.EndDate)
	suite.True(result.InitialExchangeRate.Equal(dec("1.12")))
	suite.True(result.CurrentExchangeRate.Equal(dec("1.15")))
	suite.env.primary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FinancialServiceTestSuite) TestTimeWeightedReturn_ResolvesMissingRates() {
	suite.env.seed(suite.T(), rate("EUR", "USD", "1.15", "2024-03-15"))
	suite.env.primary.On("Resolve", mock.Anything, "EUR", "USD", day("2024-01-15")).Return(dec("1.15"), nil).Once()

	result, err := suite.service.TimeWeightedReturn(suite.ctx, dto.TimeWeightedReturnRequest{
		SourceCurrency: "EUR",
		TargetCurrency: "USD",
		Amount:         "100",
		StartDate:      "2024-01-15",
	})

	suite.Require().NoError(err)
	suite.True(result.TWRPercentage.IsZero(), "got %s", result.TWRPercentage)
	suite.env.primary.AssertExpectations(suite.T())
}

func (suite *FinancialServiceTestSuite) TestTimeWeightedReturn_TinyInverseRates() {
	suite.env.seed(suite.T(),
		rate("USD", "EUR", "30000000000", "2024-01-15"),
		rate("USD", "EUR", "60000000000", "2024-03-15"),
	)

	result, err := suite.service.TimeWeightedReturn(suite.ctx, dto.TimeWeightedReturnRequest{
		SourceCurrency: "EUR",
		TargetCurrency: "USD",
		Amount:         "100",
		StartDate:      "2024-01-15",
	})

	suite.Require().NoError(err)
	suite.True(result.InitialExchangeRate.IsPositive())
	suite.True(result.CurrentExchangeRate.IsPositive())
	suite.Equal("200", result.FinalAmount.Round(2).String())
	suite.Equal("100", result.TWRPercentage.Round(2).String())
	suite.env.primary.AssertNotCalled(suite.T(), "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FinancialServiceTestSuite) TestTimeWeightedReturn_Errors() {
	suite.env.primary.failAll()
	suite.env.secondary.failAll()

	tests := []struct {
		name string
		req  dto.TimeWeightedReturnRequest
		want error
	}{
		{"zero amount", dto.TimeWeightedReturnRequest{SourceCurrency: "EUR", TargetCurrency: "USD", Amount: "0", StartDate: "2024-01-15"}, apperrors.ErrMalformedInput},
		{"future start", dto.TimeWeightedReturnRequest{SourceCurrency: "EUR", TargetCurrency: "USD", Amount: "10", StartDate: "2024-04-01"}, apperrors.ErrValidation},
		{"no data", dto.TimeWeightedReturnRequest{SourceCurrency: "EUR", TargetCurrency: "GBP", Amount: "10", StartDate: "2024-01-15"}, apperrors.ErrNoDataAvailable},
	}
	for _, tt := range tests {
		_, err := suite.service.TimeWeightedReturn(suite.ctx, tt.req)
		suite.ErrorIs(err, tt.want, tt.name)
	}
}

func TestFinancialService(t *testing.T) {
	suite.Run(t, new(FinancialServiceTestSuite))
}
