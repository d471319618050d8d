package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/core/services"
	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock CurrencyRepository ---
type MockCurrencyRepository struct {
	mock.Mock
}

func (m *MockCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	args := m.Called(ctx, currency)
	return args.Error(0)
}

func (m *MockCurrencyRepository) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

// --- Test Suite ---
type CurrencyServiceTestSuite struct {
	suite.Suite
	mockRepo *MockCurrencyRepository
	service  portssvc.CurrencySvcFacade
}

func (suite *CurrencyServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockCurrencyRepository)
	suite.service = services.NewCurrencyService(suite.mockRepo)
}

func (suite *CurrencyServiceTestSuite) TestCreateCurrency_Success() {
	ctx := context.Background()
	req := dto.CreateCurrencyRequest{
		CurrencyCode: "chf",
		Symbol:       "CHF",
		Name:         "Swiss Franc",
	}

	suite.mockRepo.On("SaveCurrency", ctx, mock.MatchedBy(func(c domain.Currency) bool {
		return c.CurrencyCode == "CHF" && c.Symbol == req.Symbol && c.CreatedBy == "config" && c.LastUpdatedBy == "config"
	})).Return(nil).Once()

	currency, err := suite.service.CreateCurrency(ctx, req, "config")

	suite.Require().NoError(err)
	suite.Require().NotNil(currency)
	suite.Equal("CHF", currency.CurrencyCode)
	suite.Equal(req.Name, currency.Name)
	suite.False(currency.CreatedAt.IsZero())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestCreateCurrency_Invalid() {
	currency, err := suite.service.CreateCurrency(context.Background(), dto.CreateCurrencyRequest{CurrencyCode: "EURO", Symbol: "€", Name: "Euro"}, "config")

	suite.Nil(currency)
	suite.ErrorIs(err, apperrors.ErrMalformedInput)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveCurrency", mock.Anything, mock.Anything)
}

func (suite *CurrencyServiceTestSuite) TestCreateCurrency_SaveError() {
	ctx := context.Background()
	req := dto.CreateCurrencyRequest{CurrencyCode: "ERR", Symbol: "E", Name: "Error Currency"}

	suite.mockRepo.On("SaveCurrency", ctx, mock.AnythingOfType("domain.Currency")).Return(assert.AnError).Once()

	currency, err := suite.service.CreateCurrency(ctx, req, "config")

	suite.Nil(currency)
	suite.ErrorIs(err, assert.AnError)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestGetCurrencyByCode() {
	ctx := context.Background()
	expected := &domain.Currency{CurrencyCode: "USD"}

	suite.mockRepo.On("FindCurrencyByCode", ctx, "USD").Return(expected, nil).Once()
	suite.mockRepo.On("FindCurrencyByCode", ctx, "NTF").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindCurrencyByCode", ctx, "ERR").Return(nil, assert.AnError).Once()

	currency, err := suite.service.GetCurrencyByCode(ctx, " usd")
	suite.Require().NoError(err)
	suite.Equal(expected, currency)

	_, err = suite.service.GetCurrencyByCode(ctx, "NTF")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.service.GetCurrencyByCode(ctx, "ERR")
	suite.ErrorIs(err, assert.AnError)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestListCurrencies_Empty() {
	ctx := context.Background()
	var expected []domain.Currency

	suite.mockRepo.On("ListCurrencies", ctx).Return(expected, nil).Once()

	currencies, err := suite.service.ListCurrencies(ctx)

	suite.Require().NoError(err)
	suite.Empty(currencies)
	suite.NotNil(currencies)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestListCurrencies_RepoError() {
	ctx := context.Background()

	suite.mockRepo.On("ListCurrencies", ctx).Return(nil, assert.AnError).Once()

	currencies, err := suite.service.ListCurrencies(ctx)

	suite.Nil(currencies)
	suite.ErrorIs(err, assert.AnError)
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestCurrencyService(t *testing.T) {
	suite.Run(t, new(CurrencyServiceTestSuite))
}
