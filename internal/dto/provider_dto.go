package dto

import (
	"strings"

	"github.com/SscSPs/exchanger/internal/core/domain"
)

// ProviderConfigRequest describes one configured rate provider.
type ProviderConfigRequest struct {
	Name              string `json:"name" mapstructure:"name" validate:"required,max=40"`
	Priority          int    `json:"priority" mapstructure:"priority" validate:"gte=0"`
	Kind              string `json:"kind" mapstructure:"kind" validate:"required,oneof=mock remote custom"`
	Endpoint          string `json:"endpoint" mapstructure:"endpoint" validate:"required_if=Kind remote,omitempty,url"`
	APIKey            string `json:"apiKey" mapstructure:"api_key"`
	Expression        string `json:"expression" mapstructure:"expression" validate:"required_if=Kind custom"`
	RequestsPerMinute int    `json:"requestsPerMinute" mapstructure:"requests_per_minute" validate:"gte=0"`
}

// Validate checks the request after normalizing the kind.
func (r *ProviderConfigRequest) Validate() error {
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	r.Name = strings.TrimSpace(r.Name)
	return validateStruct(r)
}

// ToDomain converts the request to a Provider.
func (r ProviderConfigRequest) ToDomain() domain.Provider {
	return domain.Provider{
		Name:              r.Name,
		Priority:          r.Priority,
		Kind:              domain.ProviderKind(r.Kind),
		Endpoint:          strings.TrimRight(r.Endpoint, "/"),
		APIKey:            r.APIKey,
		Expression:        r.Expression,
		RequestsPerMinute: r.RequestsPerMinute,
	}
}
