package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// RateScale is the number of fractional digits rates are stored with.
const RateScale int32 = 10

// DateLayout is the calendar date format used for valuation dates on the wire and as map keys.
const DateLayout = "2006-01-02"

// ExchangeRate is the rate to convert one unit of FromCurrencyCode into ToCurrencyCode
// on DateEffective.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}

// Inverse returns the (to, from, date) row with rate 1/Rate.
// Rate stores are the only callers: both directions must come from the same computation.
// The caller must have checked Rate > 0.
func (r ExchangeRate) Inverse() ExchangeRate {
	inv := r
	inv.ExchangeRateID = ""
	inv.FromCurrencyCode = r.ToCurrencyCode
	inv.ToCurrencyCode = r.FromCurrencyCode
	inv.Rate = decimal.NewFromInt(1).DivRound(r.Rate, InverseScale(r.Rate))
	return inv
}

// InverseScale is the number of fractional digits 1/rate is rounded to. It grows with the
// integer digits of rate so the inverse keeps RateScale significant digits and never rounds to zero.
func InverseScale(rate decimal.Decimal) int32 {
	intDigits := int32(len(rate.Abs().Truncate(0).String()))
	return RateScale + intDigits - 1
}

// InversePair returns the normalized rate and its inverse, both validated.
func (r ExchangeRate) InversePair() (ExchangeRate, ExchangeRate, error) {
	forward := r.Normalize()
	if err := forward.Validate(); err != nil {
		return ExchangeRate{}, ExchangeRate{}, err
	}
	inverse := forward.Inverse()
	if err := inverse.Validate(); err != nil {
		return ExchangeRate{}, ExchangeRate{}, err
	}
	return forward, inverse, nil
}

// Normalize upper-cases the currency codes, truncates the date and rounds the rate to RateScale.
func (r ExchangeRate) Normalize() ExchangeRate {
	r.FromCurrencyCode = NormalizeCode(r.FromCurrencyCode)
	r.ToCurrencyCode = NormalizeCode(r.ToCurrencyCode)
	r.DateEffective = NormalizeDate(r.DateEffective)
	r.Rate = r.Rate.Round(RateScale)
	return r
}

// Validate checks the invariants every stored rate must satisfy.
func (r ExchangeRate) Validate() error {
	if len(r.FromCurrencyCode) != 3 || len(r.ToCurrencyCode) != 3 {
		return apperrors.NewValidationError(fmt.Sprintf("currency codes must be 3 letters, got %q and %q", r.FromCurrencyCode, r.ToCurrencyCode))
	}
	if r.FromCurrencyCode == r.ToCurrencyCode {
		return apperrors.NewValidationError("from and to currencies cannot be the same")
	}
	if !r.Rate.IsPositive() {
		return apperrors.NewInvalidRateError(fmt.Sprintf("rate %s for %s/%s must be positive", r.Rate, r.FromCurrencyCode, r.ToCurrencyCode))
	}
	if r.DateEffective.IsZero() {
		return apperrors.NewValidationError("date effective is required")
	}
	return nil
}

// IdentityRate returns the 1:1 rate of a currency against itself. It is never persisted.
func IdentityRate(code string, date time.Time) *ExchangeRate {
	code = NormalizeCode(code)
	return &ExchangeRate{
		FromCurrencyCode: code,
		ToCurrencyCode:   code,
		Rate:             decimal.NewFromInt(1),
		DateEffective:    NormalizeDate(date),
	}
}

// NormalizeCode trims and upper-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeDate drops the time of day, keeping the calendar date in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a valuation date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysInRange returns every calendar date from -> to, inclusive, walking forward one day at a time.
func DaysInRange(from, to time.Time) []time.Time {
	from, to = NormalizeDate(from), NormalizeDate(to)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
