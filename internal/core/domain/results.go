package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateTable maps a valuation date (YYYY-MM-DD) to the rate of every requested currency.
// A cell that could not be resolved is present with Valid == false (JSON null),
// so "no data" is never confused with a zero rate.
type RateTable map[string]map[string]decimal.NullDecimal

// Conversion is the result of converting an amount at the latest known rate.
// Available is false when no rate could be found in the lookback window; Rate and
// ConvertedAmount are then zero.
type Conversion struct {
	SourceCurrency  string          `json:"sourceCurrency"`
	TargetCurrency  string          `json:"targetCurrency"`
	Amount          decimal.Decimal `json:"amount"`
	Rate            decimal.Decimal `json:"rate"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	AsOfDate        *time.Time      `json:"asOfDate,omitempty"`
	Available       bool            `json:"available"`
}

// TimeWeightedReturn reports the return of holding Amount of SourceCurrency converted to
// TargetCurrency on StartDate and converted back at today's rate.
type TimeWeightedReturn struct {
	SourceCurrency      string          `json:"sourceCurrency"`
	TargetCurrency      string          `json:"targetCurrency"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             time.Time       `json:"endDate"`
	InitialAmount       decimal.Decimal `json:"initialAmount"`
	AmountInTarget      decimal.Decimal `json:"amountInTarget"`
	FinalAmount         decimal.Decimal `json:"finalAmount"`
	InitialExchangeRate decimal.Decimal `json:"initialExchangeRate"`
	CurrentExchangeRate decimal.Decimal `json:"currentExchangeRate"`
	TWRPercentage       decimal.Decimal `json:"twrPercentage"`
}

// BackfillJob asks a worker to resolve and persist one (source, target, date) cell.
// Jobs are idempotent: running one twice re-upserts the same key.
type BackfillJob struct {
	JobID          string    `json:"jobID"`
	SourceCurrency string    `json:"sourceCurrency"`
	TargetCurrency string    `json:"targetCurrency"`
	Date           time.Time `json:"date"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
}

// Key identifies the rate cell a job fills. Used as the queue partitioning key.
func (j BackfillJob) Key() string {
	return j.SourceCurrency + "|" + j.TargetCurrency + "|" + FormatDate(j.Date)
}
