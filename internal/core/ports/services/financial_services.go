package services

import (
	"context"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/dto"
)

// FinancialSvc derives financial figures from the rate history.
type FinancialSvc interface {
	// Convert converts an amount at the latest known rate.
	Convert(ctx context.Context, req dto.ConvertRequest) (*domain.Conversion, error)

	// TimeWeightedReturn computes the return of a currency position held from a start date until today.
	TimeWeightedReturn(ctx context.Context, req dto.TimeWeightedReturnRequest) (*domain.TimeWeightedReturn, error)
}
