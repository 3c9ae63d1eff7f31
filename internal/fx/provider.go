package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

type HTTPRateSource struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPRateSource(baseURL string, timeout time.Duration) *HTTPRateSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRateSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type latestRatesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (s *HTTPRateSource) LatestRates(ctx context.Context, base domain.Currency) (map[string]decimal.Decimal, error) {
	log := logging.FromContext(ctx)

	url := s.baseURL + "/" + string(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("LatestRates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LatestRates: send: %v: %w", err, domain.ErrUpstreamFailure)
	}
	defer resp.Body.Close()

	log.Debug("rate provider response received",
		"base", base,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("LatestRates: unexpected status %d: %s: %w", resp.StatusCode, string(body), domain.ErrUpstreamFailure)
	}

	var payload latestRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("LatestRates: decode: %v: %w", err, domain.ErrUpstreamFailure)
	}
	if payload.Rates == nil {
		return nil, fmt.Errorf("LatestRates: response has no rates: %w", domain.ErrUpstreamFailure)
	}

	return payload.Rates, nil
}
