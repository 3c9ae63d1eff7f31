package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

func TestHTTPRateSource_LatestRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92,"NGN":1550.5}}`))
	}))
	defer srv.Close()

	src := NewHTTPRateSource(srv.URL+"/", time.Second)
	rates, err := src.LatestRates(context.Background(), domain.CurrencyUSD)
	require.NoError(t, err)

	assert.Equal(t, "0.92", rates["EUR"].String())
	assert.Equal(t, "1550.5", rates["NGN"].String())
}

func TestHTTPRateSource_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-200 status", status: http.StatusServiceUnavailable, body: `{"error":"down"}`},
		{name: "malformed body", status: http.StatusOK, body: `{"rates":`},
		{name: "missing rates", status: http.StatusOK, body: `{"base":"USD"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPRateSource(srv.URL, time.Second).LatestRates(context.Background(), domain.CurrencyUSD)
			require.ErrorIs(t, err, domain.ErrUpstreamFailure)
		})
	}
}

func TestHTTPRateSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPRateSource(url, time.Second).LatestRates(context.Background(), domain.CurrencyUSD)
	require.ErrorIs(t, err, domain.ErrUpstreamFailure)
}
