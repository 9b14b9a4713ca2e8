package ledger

import (
	"log/slog"
	"time"
)

// Option configures a Ledger at construction.
type Option func(*Ledger)

// WithDifficulty sets the number of leading TargetMarker characters required
// of every mined block. It is fixed for the lifetime of the ledger.
func WithDifficulty(difficulty int) Option {
	return func(l *Ledger) {
		l.difficulty = difficulty
	}
}

// WithMiner replaces ProofOfWork as the nonce search strategy.
func WithMiner(m Miner) Option {
	return func(l *Ledger) {
		l.miner = m
	}
}

// WithObserver reports mining, append and verification events to o.
func WithObserver(o Observer) Option {
	return func(l *Ledger) {
		l.observer = o
	}
}

// WithLogger sets the logger. Ledgers discard logs by default.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithClock replaces time.Now as the source of block timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithDifficultyCheck makes Verify also require every non-genesis hash to meet
// the ledger difficulty. By default difficulty is only enforced when a block is
// admitted.
func WithDifficultyCheck() Option {
	return func(l *Ledger) {
		l.checkDifficulty = true
	}
}
