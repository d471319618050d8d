package models

// Provider is a configured rate provider row.
type Provider struct {
	ProviderID        string `db:"provider_id" json:"providerID"`
	Name              string `db:"name" json:"name"`
	Priority          int    `db:"priority" json:"priority"`
	Kind              string `db:"kind" json:"kind"`
	Endpoint          string `db:"endpoint" json:"endpoint"`
	APIKey            string `db:"api_key" json:"apiKey"`
	Expression        string `db:"expression" json:"expression"`
	RequestsPerMinute int    `db:"requests_per_minute" json:"requestsPerMinute"`
	AuditFields
}
