package mapping

import (
	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/models"
)

// ToModelProvider converts a domain Provider to a model Provider
func ToModelProvider(d domain.Provider) models.Provider {
	return models.Provider{
		ProviderID:        d.ProviderID,
		Name:              d.Name,
		Priority:          d.Priority,
		Kind:              string(d.Kind),
		Endpoint:          d.Endpoint,
		APIKey:            d.APIKey,
		Expression:        d.Expression,
		RequestsPerMinute: d.RequestsPerMinute,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainProvider converts a model Provider to a domain Provider
func ToDomainProvider(m models.Provider) domain.Provider {
	return domain.Provider{
		ProviderID:        m.ProviderID,
		Name:              m.Name,
		Priority:          m.Priority,
		Kind:              domain.ProviderKind(m.Kind),
		Endpoint:          m.Endpoint,
		APIKey:            m.APIKey,
		Expression:        m.Expression,
		RequestsPerMinute: m.RequestsPerMinute,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
