package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kalinova-sec/secledger/ledger"
	"github.com/kalinova-sec/secledger/simulate"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	signer, err := ledger.NewSecretSigner([]byte("monitor"))
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	l, err := ledger.NewLedger(signer, ledger.WithDifficulty(1))
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return l
}

func TestCheckLogsEventsAndVerifies(t *testing.T) {
	l := newLedger(t)
	m := New(l, WithProducer(simulate.NewGenerator(1, 42)), WithProducer(ProducerFunc(func(context.Context) []ledger.Event {
		return []ledger.Event{{Type: "honeytoken_access"}, {Type: "port_scan"}}
	})))

	r := m.Check(context.Background())
	if r.Logged != 3 || r.Failed != 0 {
		t.Fatalf("expected 3 logged events, got %+v", r)
	}
	if !r.Valid {
		t.Fatalf("chain should be valid: %v", r.VerifyErr)
	}
	if l.Len() != 4 {
		t.Fatalf("expected 4 blocks, got %d", l.Len())
	}
}

// fakeLedger fails verification and the events whose type is "bad".
type fakeLedger struct {
	logged    int
	verifyErr error
}

func (f *fakeLedger) LogSecurityEvent(e ledger.Event) (string, error) {
	if e.Type == "bad" {
		return "", ledger.ErrUnserializable
	}
	f.logged++
	return "hash", nil
}

func (f *fakeLedger) Verify() error { return f.verifyErr }

func TestCheckAlertsOnIntegrityFailure(t *testing.T) {
	corrupt := &ledger.IntegrityError{Index: 2, Reason: "invalid hash"}
	fake := &fakeLedger{verifyErr: corrupt}
	var alerted error
	m := New(fake,
		WithAlert(func(err error) { alerted = err }),
		WithProducer(ProducerFunc(func(context.Context) []ledger.Event {
			return []ledger.Event{{Type: "bad"}, {Type: "port_scan"}}
		})),
	)

	r := m.Check(context.Background())
	if r.Valid || !errors.Is(r.VerifyErr, corrupt) {
		t.Fatalf("expected integrity failure, got %+v", r)
	}
	if alerted != corrupt {
		t.Fatalf("alert should receive the verification error, got %v", alerted)
	}
	if r.Logged != 1 || r.Failed != 1 || fake.logged != 1 {
		t.Fatalf("expected one logged and one failed event, got %+v", r)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	l := newLedger(t)
	var calls atomic.Int32
	m := New(l, WithInterval(5*time.Millisecond), WithProducer(ProducerFunc(func(context.Context) []ledger.Event {
		calls.Add(1)
		return []ledger.Event{{Type: "tick"}}
	})))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("monitor did not run three cycles")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
	if !l.IsChainValid() {
		t.Fatal("chain should be valid after monitoring")
	}
	if l.Len() < 4 {
		t.Fatalf("expected at least 3 events recorded, got %d blocks", l.Len())
	}
}
