package dto

import "github.com/SscSPs/exchanger/internal/core/domain"

// CreateCurrencyRequest defines the data needed to create a new currency.
type CreateCurrencyRequest struct {
	CurrencyCode string `json:"currencyCode" mapstructure:"code" validate:"required,uppercase,len=3"`
	Symbol       string `json:"symbol" mapstructure:"symbol" validate:"required"`
	Name         string `json:"name" mapstructure:"name" validate:"required,max=20"`
}

// Validate checks the request after normalizing the currency code.
func (r *CreateCurrencyRequest) Validate() error {
	r.CurrencyCode = domain.NormalizeCode(r.CurrencyCode)
	return validateStruct(r)
}
