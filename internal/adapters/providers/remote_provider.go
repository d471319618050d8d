package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// fixerResponse is the subset of the historical rates payload the adapter reads.
type fixerResponse struct {
	Success bool                       `json:"success"`
	Rates   map[string]decimal.Decimal `json:"rates"`
}

// FixerAdapter queries a fixer.io-style historical endpoint.
type FixerAdapter struct {
	client   *http.Client
	endpoint string
	apiKey   string
	quota    *Quota
}

func NewFixerAdapter(client *http.Client, endpoint, apiKey string, quota *Quota) *FixerAdapter {
	return &FixerAdapter{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		quota:    quota,
	}
}

func (a *FixerAdapter) Resolve(ctx context.Context, sourceCurrency, targetCurrency string, date time.Time) (decimal.Decimal, error) {
	sourceCurrency, targetCurrency = domain.NormalizeCode(sourceCurrency), domain.NormalizeCode(targetCurrency)
	if sourceCurrency == targetCurrency {
		return decimal.NewFromInt(1), nil
	}
	if a.endpoint == "" {
		return decimal.Zero, unavailable("remote", "no endpoint configured")
	}
	if err := a.quota.Take(ctx); err != nil {
		return decimal.Zero, err
	}

	query := url.Values{}
	query.Set("access_key", a.apiKey)
	query.Set("symbols", sourceCurrency+","+targetCurrency)
	query.Set("format", "1")
	reqURL := fmt.Sprintf("%s/%s?%s", a.endpoint, domain.FormatDate(date), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, unavailable("remote", "building request: %v", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return decimal.Zero, unavailable("remote", "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, unavailable("remote", "unexpected status %d", resp.StatusCode)
	}

	var body fixerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, unavailable("remote", "decoding response: %v", err)
	}
	if !body.Success {
		return decimal.Zero, unavailable("remote", "response reported failure")
	}

	source, okS := body.Rates[sourceCurrency]
	target, okT := body.Rates[targetCurrency]
	if !okS || !okT || !source.IsPositive() {
		return decimal.Zero, unavailable("remote", "rates for %s/%s missing from response", sourceCurrency, targetCurrency)
	}
	return checkRate("remote", target.DivRound(source, domain.RateScale))
}
