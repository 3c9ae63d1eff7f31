// Command mock-rates serves the exchange rate provider API locally. It
// answers GET /{base} with the static fallback table so the API can run
// without network access.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/fx"
	"github.com/josh-kwaku/remittance-api/internal/logging"
	"github.com/josh-kwaku/remittance-api/internal/middleware"
)

type config struct {
	Addr   string `env:"MOCK_RATES_ADDR" envDefault:":8081"`
	AppEnv string `env:"APP_ENV" envDefault:"development"`
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init("mock-rates", "info", cfg.AppEnv)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /{base}", handleRates)

	slog.Info("mock rates provider started", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, middleware.Chain(mux, middleware.Recovery, middleware.Logging)); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleRates(w http.ResponseWriter, r *http.Request) {
	base := domain.Currency(strings.ToUpper(r.PathValue("base")))
	if !base.IsValid() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unsupported base currency"})
		return
	}

	writeJSON(w, http.StatusOK, ratesResponse{
		Base:  string(base),
		Date:  time.Now().UTC().Format(time.DateOnly),
		Rates: fx.FallbackRatesFor(base),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
