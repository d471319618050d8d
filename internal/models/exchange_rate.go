package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores the conversion rate between two currencies for a specific date.
// (FromCurrencyCode, ToCurrencyCode, DateEffective) is unique.
type ExchangeRate struct {
	ExchangeRateID   string          `db:"exchange_rate_id" json:"exchangeRateID"`
	FromCurrencyCode string          `db:"from_currency_code" json:"fromCurrencyCode"`
	ToCurrencyCode   string          `db:"to_currency_code" json:"toCurrencyCode"`
	Rate             decimal.Decimal `db:"rate" json:"rate"`
	DateEffective    time.Time       `db:"date_effective" json:"dateEffective"`
	AuditFields
}
