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

// --- Mock ProviderRepository ---
type MockProviderRepository struct {
	mock.Mock
}

func (m *MockProviderRepository) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Provider), args.Error(1)
}

func (m *MockProviderRepository) ReplaceProviders(ctx context.Context, providers []domain.Provider) error {
	args := m.Called(ctx, providers)
	return args.Error(0)
}

type ProviderServiceTestSuite struct {
	suite.Suite
	mockRepo *MockProviderRepository
	service  portssvc.ProviderSvcFacade
}

func (suite *ProviderServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockProviderRepository)
	suite.service = services.NewProviderService(suite.mockRepo)
}

func (suite *ProviderServiceTestSuite) TestSyncProviders_Success() {
	ctx := context.Background()
	reqs := []dto.ProviderConfigRequest{
		{Name: "fixer", Priority: 1, Kind: "REMOTE", Endpoint: "http://data.fixer.io/api/", APIKey: "k"},
		{Name: "weekday", Priority: 5, Kind: "custom", Expression: "weekday == 0 ? 1.1 : 1.2"},
		{Name: "mock", Priority: 9, Kind: "mock"},
	}
	stored := []domain.Provider{{Name: "fixer"}, {Name: "weekday"}, {Name: "mock"}}

	suite.mockRepo.On("ReplaceProviders", ctx, mock.MatchedBy(func(ps []domain.Provider) bool {
		return len(ps) == 3 &&
			ps[0].Kind == domain.ProviderKindRemote &&
			ps[0].Endpoint == "http://data.fixer.io/api" &&
			ps[1].Kind == domain.ProviderKindCustom &&
			ps[2].CreatedBy == "config"
	})).Return(nil).Once()
	suite.mockRepo.On("ListProviders", ctx).Return(stored, nil).Once()

	providers, err := suite.service.SyncProviders(ctx, reqs, "config")

	suite.Require().NoError(err)
	suite.Equal(stored, providers)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ProviderServiceTestSuite) TestSyncProviders_RejectsInvalidSets() {
	tests := []struct {
		name string
		reqs []dto.ProviderConfigRequest
		want error
	}{
		{
			name: "duplicate name",
			reqs: []dto.ProviderConfigRequest{{Name: "mock", Priority: 1, Kind: "mock"}, {Name: "mock", Priority: 2, Kind: "mock"}},
			want: apperrors.ErrDuplicate,
		},
		{
			name: "duplicate priority",
			reqs: []dto.ProviderConfigRequest{{Name: "a", Priority: 1, Kind: "mock"}, {Name: "b", Priority: 1, Kind: "mock"}},
			want: apperrors.ErrDuplicate,
		},
		{
			name: "unknown kind",
			reqs: []dto.ProviderConfigRequest{{Name: "a", Priority: 1, Kind: "plugin"}},
			want: apperrors.ErrMalformedInput,
		},
		{
			name: "remote without endpoint",
			reqs: []dto.ProviderConfigRequest{{Name: "a", Priority: 1, Kind: "remote"}},
			want: apperrors.ErrMalformedInput,
		},
		{
			name: "custom without expression",
			reqs: []dto.ProviderConfigRequest{{Name: "a", Priority: 1, Kind: "custom"}},
			want: apperrors.ErrMalformedInput,
		},
	}
	for _, tt := range tests {
		_, err := suite.service.SyncProviders(context.Background(), tt.reqs, "config")
		suite.ErrorIs(err, tt.want, tt.name)
	}
	suite.mockRepo.AssertNotCalled(suite.T(), "ReplaceProviders", mock.Anything, mock.Anything)
}

func (suite *ProviderServiceTestSuite) TestSyncProviders_StoreError() {
	ctx := context.Background()
	suite.mockRepo.On("ReplaceProviders", ctx, mock.Anything).Return(assert.AnError).Once()

	_, err := suite.service.SyncProviders(ctx, []dto.ProviderConfigRequest{{Name: "mock", Priority: 1, Kind: "mock"}}, "config")

	suite.ErrorIs(err, assert.AnError)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListProviders", mock.Anything)
}

func TestProviderService(t *testing.T) {
	suite.Run(t, new(ProviderServiceTestSuite))
}
