package models

// Currency represents a supported currency.
type Currency struct {
	CurrencyCode string `db:"currency_code" json:"currencyCode"` // Primary Key (e.g., "USD")
	Symbol       string `db:"symbol" json:"symbol"`              // e.g., "$"
	Name         string `db:"name" json:"name"`                  // e.g., "US Dollar"
	AuditFields
}
