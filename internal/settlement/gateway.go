package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

// ErrGatewayDeclined carries the exact text recorded as a transfer's failure reason.
var ErrGatewayDeclined = errors.New("Payment gateway declined transaction")

const (
	DefaultLatency     = 2 * time.Second
	DefaultFailureRate = 0.05
)

type Outcome struct {
	ExternalReference string
	ProcessedAt       time.Time
}

type GatewayConfig struct {
	Latency     time.Duration
	FailureRate float64

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
	Now  func() time.Time
}

// Gateway simulates a payment processor with fixed latency and a random
// decline rate.
type Gateway struct {
	latency     time.Duration
	failureRate float64
	rand        func() float64
	now         func() time.Time
}

func NewGateway(cfg GatewayConfig) *Gateway {
	g := &Gateway{
		latency:     cfg.Latency,
		failureRate: cfg.FailureRate,
		rand:        cfg.Rand,
		now:         cfg.Now,
	}
	if g.latency < 0 {
		g.latency = 0
	}
	if g.rand == nil {
		g.rand = rand.Float64
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

func (g *Gateway) Settle(ctx context.Context, t *domain.Transfer) (*Outcome, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("Settle: transfer %s: %w", t.ID, ctx.Err())
		case <-timer.C:
		}
	}

	if g.rand() < g.failureRate {
		return nil, ErrGatewayDeclined
	}

	now := g.now()
	return &Outcome{
		ExternalReference: "EXT" + strconv.FormatInt(now.UnixMilli(), 10),
		ProcessedAt:       now,
	}, nil
}
