package ledger

import "time"

// Observer is notified of ledger activity, typically to export metrics.
// Calls happen synchronously on the calling goroutine.
type Observer interface {
	// ChainLoaded reports the length of a ledger created by NewLedger or
	// Import, before any event is logged.
	ChainLoaded(length int)
	BlockMined(attempts uint64, elapsed time.Duration)
	BlockAppended(length int)
	ChainVerified(valid bool)
}

type nopObserver struct{}

func (nopObserver) ChainLoaded(int)                  {}
func (nopObserver) BlockMined(uint64, time.Duration) {}
func (nopObserver) BlockAppended(int)                {}
func (nopObserver) ChainVerified(bool)               {}
