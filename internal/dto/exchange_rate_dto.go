package dto

import (
	"fmt"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GetExchangeRateRequest asks for the rate of a pair on a date, resolving it if it is not stored yet.
type GetExchangeRateRequest struct {
	SourceCurrency string `json:"sourceCurrency" validate:"required,len=3,alpha"`
	TargetCurrency string `json:"targetCurrency" validate:"required,len=3,alpha"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
}

// RateQuery is a parsed (source, target, date) key.
type RateQuery struct {
	SourceCurrency string
	TargetCurrency string
	Date           time.Time
}

// Parse validates the request and converts it into a RateQuery.
func (r GetExchangeRateRequest) Parse() (RateQuery, error) {
	r.SourceCurrency = domain.NormalizeCode(r.SourceCurrency)
	r.TargetCurrency = domain.NormalizeCode(r.TargetCurrency)
	if err := validateStruct(r); err != nil {
		return RateQuery{}, err
	}
	date, err := parseDate("date", r.Date)
	if err != nil {
		return RateQuery{}, err
	}
	return RateQuery{SourceCurrency: r.SourceCurrency, TargetCurrency: r.TargetCurrency, Date: date}, nil
}

// ImportExchangeRateRow is one (source_code, target_code, date, rate) row of a bulk import.
type ImportExchangeRateRow struct {
	SourceCurrency string `json:"sourceCurrency" validate:"required,len=3,alpha"`
	TargetCurrency string `json:"targetCurrency" validate:"required,len=3,alpha,nefield=SourceCurrency"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Rate           string `json:"rate" validate:"required,numeric"`
}

// Parse validates the row and converts it into an ExchangeRate. Non-positive rates are
// rejected with ErrInvalidRate so nothing in the batch is written.
func (r ImportExchangeRateRow) Parse() (domain.ExchangeRate, error) {
	r.SourceCurrency = domain.NormalizeCode(r.SourceCurrency)
	r.TargetCurrency = domain.NormalizeCode(r.TargetCurrency)
	if err := validateStruct(r); err != nil {
		return domain.ExchangeRate{}, err
	}
	date, err := parseDate("date", r.Date)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	rate, err := parseDecimal("rate", r.Rate)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return domain.ExchangeRate{}, fmt.Errorf("%w: rate %s for %s/%s on %s must be positive",
			apperrors.ErrInvalidRate, rate, r.SourceCurrency, r.TargetCurrency, r.Date)
	}
	return domain.ExchangeRate{
		FromCurrencyCode: r.SourceCurrency,
		ToCurrencyCode:   r.TargetCurrency,
		Rate:             rate,
		DateEffective:    date,
	}, nil
}
