// Package monitor drives a ledger from event producers and checks its
// integrity on a fixed interval.
//
// Every cycle drains all producers into the ledger and then verifies the
// chain. A failed verification raises an alert; the monitor never repairs or
// rolls back the chain.
package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/kalinova-sec/secledger/ledger"
)

// DefaultInterval matches a once-a-minute integrity check.
const DefaultInterval = time.Minute

// Producer is a source of security events, such as a scanner or detector.
type Producer interface {
	Events(ctx context.Context) []ledger.Event
}

// ProducerFunc adapts a function to a Producer.
type ProducerFunc func(ctx context.Context) []ledger.Event

func (f ProducerFunc) Events(ctx context.Context) []ledger.Event { return f(ctx) }

// Ledger is the part of *ledger.Ledger the monitor needs.
type Ledger interface {
	LogSecurityEvent(e ledger.Event) (string, error)
	Verify() error
}

// AlertFunc is called with the verification error whenever the chain is found
// corrupted.
type AlertFunc func(err error)

// Report summarizes one monitoring cycle.
type Report struct {
	Logged    int
	Failed    int
	Valid     bool
	VerifyErr error
}

// Monitor periodically feeds producer events into a ledger and verifies it.
type Monitor struct {
	ledger    Ledger
	producers []Producer
	interval  time.Duration
	alert     AlertFunc
	logger    *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProducer adds an event source. Producers are drained in the order added.
func WithProducer(p Producer) Option {
	return func(m *Monitor) {
		m.producers = append(m.producers, p)
	}
}

// WithInterval sets the time between cycles. It defaults to DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithAlert sets the function called when verification fails.
func WithAlert(f AlertFunc) Option {
	return func(m *Monitor) {
		m.alert = f
	}
}

// WithLogger sets the logger for cycle and alert records.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// New returns a monitor for l with no producers unless opts add some.
func New(l Ledger, opts ...Option) *Monitor {
	m := &Monitor{
		ledger:   l,
		interval: DefaultInterval,
		alert:    func(error) {},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check runs a single cycle: it logs every pending event and verifies the
// chain. Events that fail to log are reported and counted, not retried.
func (m *Monitor) Check(ctx context.Context) Report {
	var r Report
	for _, p := range m.producers {
		for _, e := range p.Events(ctx) {
			if _, err := m.ledger.LogSecurityEvent(e); err != nil {
				r.Failed++
				m.logger.Error("failed to record event", "event_type", e.Type, "error", err)
				continue
			}
			r.Logged++
		}
	}

	r.VerifyErr = m.ledger.Verify()
	r.Valid = r.VerifyErr == nil
	if !r.Valid {
		var ierr *ledger.IntegrityError
		if errors.As(r.VerifyErr, &ierr) {
			m.logger.Error("ledger integrity compromised", "block", ierr.Index, "reason", ierr.Reason)
		} else {
			m.logger.Error("ledger integrity compromised", "error", r.VerifyErr)
		}
		m.alert(r.VerifyErr)
	}
	return r
}

// Run performs a cycle immediately and then once per interval until ctx is
// done. It returns the context error.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitoring started", "interval", m.interval, "producers", len(m.producers))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		r := m.Check(ctx)
		if r.Logged > 0 || r.Failed > 0 {
			m.logger.Info("monitoring cycle", "logged", r.Logged, "failed", r.Failed, "valid", r.Valid)
		}
		select {
		case <-ctx.Done():
			m.logger.Info("monitoring stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
