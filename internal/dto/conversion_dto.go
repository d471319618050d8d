package dto

import (
	"fmt"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ConvertRequest asks to convert Amount of SourceCurrency into TargetCurrency at the latest known rate.
type ConvertRequest struct {
	SourceCurrency string `json:"sourceCurrency" validate:"required,len=3,alpha"`
	TargetCurrency string `json:"targetCurrency" validate:"required,len=3,alpha"`
	Amount         string `json:"amount" validate:"required,numeric"`
}

// ConvertQuery is a parsed ConvertRequest.
type ConvertQuery struct {
	SourceCurrency string
	TargetCurrency string
	Amount         decimal.Decimal
}

// Parse validates the request. Negative amounts are rejected.
func (r ConvertRequest) Parse() (ConvertQuery, error) {
	r.SourceCurrency = domain.NormalizeCode(r.SourceCurrency)
	r.TargetCurrency = domain.NormalizeCode(r.TargetCurrency)
	if err := validateStruct(r); err != nil {
		return ConvertQuery{}, err
	}
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return ConvertQuery{}, err
	}
	if amount.IsNegative() {
		return ConvertQuery{}, fmt.Errorf("%w: amount %s must not be negative", apperrors.ErrMalformedInput, r.Amount)
	}
	return ConvertQuery{SourceCurrency: r.SourceCurrency, TargetCurrency: r.TargetCurrency, Amount: amount}, nil
}

// TimeWeightedReturnRequest asks for the return of Amount invested from SourceCurrency into
// TargetCurrency on StartDate, valued today.
type TimeWeightedReturnRequest struct {
	SourceCurrency string `json:"sourceCurrency" validate:"required,len=3,alpha"`
	TargetCurrency string `json:"targetCurrency" validate:"required,len=3,alpha"`
	Amount         string `json:"amount" validate:"required,numeric"`
	StartDate      string `json:"startDate" validate:"required,datetime=2006-01-02"`
}

// TimeWeightedReturnQuery is a parsed TimeWeightedReturnRequest.
type TimeWeightedReturnQuery struct {
	SourceCurrency string
	TargetCurrency string
	Amount         decimal.Decimal
	StartDate      time.Time
}

// Parse validates the request. The amount must be positive because the return is relative to it.
func (r TimeWeightedReturnRequest) Parse() (TimeWeightedReturnQuery, error) {
	r.SourceCurrency = domain.NormalizeCode(r.SourceCurrency)
	r.TargetCurrency = domain.NormalizeCode(r.TargetCurrency)
	if err := validateStruct(r); err != nil {
		return TimeWeightedReturnQuery{}, err
	}
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return TimeWeightedReturnQuery{}, err
	}
	if !amount.IsPositive() {
		return TimeWeightedReturnQuery{}, fmt.Errorf("%w: amount %s must be positive", apperrors.ErrMalformedInput, r.Amount)
	}
	start, err := parseDate("startDate", r.StartDate)
	if err != nil {
		return TimeWeightedReturnQuery{}, err
	}
	return TimeWeightedReturnQuery{
		SourceCurrency: r.SourceCurrency,
		TargetCurrency: r.TargetCurrency,
		Amount:         amount,
		StartDate:      start,
	}, nil
}
