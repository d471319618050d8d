package dto

import (
	"fmt"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
)

// FillRangeRequest asks for the rates of a source currency against a set of currencies
// for every day of an inclusive date range. An empty Currencies list means every
// configured currency.
type FillRangeRequest struct {
	SourceCurrency string   `json:"sourceCurrency" validate:"required,len=3,alpha"`
	Currencies     []string `json:"currencies" validate:"omitempty,dive,len=3,alpha"`
	DateFrom       string   `json:"dateFrom" validate:"required,datetime=2006-01-02"`
	DateTo         string   `json:"dateTo" validate:"required,datetime=2006-01-02"`
}

// FillRangeQuery is a parsed FillRangeRequest.
type FillRangeQuery struct {
	SourceCurrency string
	Currencies     []string
	DateFrom       time.Time
	DateTo         time.Time
}

// Parse validates the request. maxDays bounds the number of days in the range (0 = unbounded).
func (r FillRangeRequest) Parse(maxDays int) (FillRangeQuery, error) {
	r.SourceCurrency = domain.NormalizeCode(r.SourceCurrency)
	r.Currencies = normalizeCodes(r.Currencies)
	if err := validateStruct(r); err != nil {
		return FillRangeQuery{}, err
	}

	from, err := parseDate("dateFrom", r.DateFrom)
	if err != nil {
		return FillRangeQuery{}, err
	}
	to, err := parseDate("dateTo", r.DateTo)
	if err != nil {
		return FillRangeQuery{}, err
	}
	if to.Before(from) {
		return FillRangeQuery{}, fmt.Errorf("%w: dateTo %s is before dateFrom %s", apperrors.ErrMalformedInput, r.DateTo, r.DateFrom)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; maxDays > 0 && days > maxDays {
		return FillRangeQuery{}, fmt.Errorf("%w: range of %d days exceeds the maximum of %d", apperrors.ErrMalformedInput, days, maxDays)
	}

	return FillRangeQuery{
		SourceCurrency: r.SourceCurrency,
		Currencies:     r.Currencies,
		DateFrom:       from,
		DateTo:         to,
	}, nil
}
