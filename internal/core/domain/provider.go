package domain

// ProviderKind selects the rate strategy a Provider uses.
type ProviderKind string

const (
	// ProviderKindMock derives rates from stored history or a static baseline table.
	ProviderKindMock ProviderKind = "mock"
	// ProviderKindRemote queries a fixer.io-style historical rates API.
	ProviderKindRemote ProviderKind = "remote"
	// ProviderKindCustom evaluates an administrator-supplied sandboxed expression.
	ProviderKindCustom ProviderKind = "custom"
)

// IsValid reports whether k is a known provider kind.
func (k ProviderKind) IsValid() bool {
	switch k {
	case ProviderKindMock, ProviderKindRemote, ProviderKindCustom:
		return true
	}
	return false
}

// Provider is a ranked source of rates. Lower Priority is tried first; priorities are unique.
type Provider struct {
	ProviderID        string       `json:"providerID"`
	Name              string       `json:"name"`
	Priority          int          `json:"priority"`
	Kind              ProviderKind `json:"kind"`
	Endpoint          string       `json:"endpoint,omitempty"`
	APIKey            string       `json:"-"`
	Expression        string       `json:"expression,omitempty"`
	RequestsPerMinute int          `json:"requestsPerMinute,omitempty"`
	AuditFields
}
