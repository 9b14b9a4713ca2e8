// Package simulate produces random security events for demos and load tests.
package simulate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/kalinova-sec/secledger/ledger"
)

var (
	EventTypes = []string{"failed_login", "malware_detected", "port_scan", "data_exfiltration", "privilege_escalation"}
	Severities = []string{ledger.SeverityLow, ledger.SeverityMedium, ledger.SeverityHigh, ledger.SeverityCritical}
	Actions    = []string{"logged", "blocked", "alerted"}
)

// Generator emits at most one random event per call to Events, with
// probability Rate.
type Generator struct {
	Rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed, so two generators with
// the same seed emit the same sequence.
func NewGenerator(rate float64, seed uint64) *Generator {
	return &Generator{
		Rate: rate,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *Generator) Events(ctx context.Context) []ledger.Event {
	if ctx.Err() != nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng.Float64() >= g.Rate {
		return nil
	}
	return []ledger.Event{g.event()}
}

// Batch returns n events regardless of Rate.
func (g *Generator) Batch(n int) []ledger.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	events := make([]ledger.Event, n)
	for i := range events {
		events[i] = g.event()
	}
	return events
}

func (g *Generator) event() ledger.Event {
	return ledger.Event{
		Type:     pick(g.rng, EventTypes),
		Severity: pick(g.rng, Severities),
		Source:   fmt.Sprintf("192.168.1.%d", g.rng.IntN(255)+1),
		Details: map[string]any{
			"description": "simulated security event",
			"risk_score":  g.rng.IntN(100) + 1,
		},
		Action: pick(g.rng, Actions),
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
