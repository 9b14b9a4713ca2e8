package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrUnserializable     = errors.New("event is not JSON serializable")
	ErrInvalidDifficulty  = errors.New("difficulty out of range")
	ErrEmptyChain         = errors.New("empty blockchain")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrSignerNotSpecified = errors.New("signer not specified")
	ErrInsufficientWork   = errors.New("block hash does not meet difficulty")
	ErrTimestampRange     = errors.New("timestamp outside the hashable range")
)

// IntegrityError reports the first block that failed verification.
type IntegrityError struct {
	Index  int
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("block %d invalid: %s", e.Index, e.Reason)
}

// genesisPayload is the well-known content of block 0.
func genesisPayload() map[string]any {
	return map[string]any{
		"type":    "genesis",
		"message": "security ledger initialized",
		"system":  "secledger",
	}
}

// Ledger is an append-only chain of security event blocks.
type Ledger struct {
	// writeMu serializes build, mine and append. mu guards publication of
	// blocks and is never held while mining.
	writeMu sync.Mutex
	mu      sync.RWMutex
	blocks  []Block

	difficulty      int
	checkDifficulty bool
	signer          Signer
	miner           Miner
	observer        Observer
	logger          *slog.Logger
	now             func() time.Time
}

func newLedger(signer Signer, opts ...Option) (*Ledger, error) {
	if signer == nil {
		return nil, ErrSignerNotSpecified
	}
	l := &Ledger{
		difficulty: DefaultDifficulty,
		signer:     signer,
		miner:      ProofOfWork{},
		observer:   nopObserver{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.difficulty < 0 || l.difficulty > maxDifficulty {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDifficulty, l.difficulty)
	}
	return l, nil
}

// NewLedger creates a ledger holding only the genesis block. The signer is
// used for every event logged afterwards.
func NewLedger(signer Signer, opts ...Option) (*Ledger, error) {
	l, err := newLedger(signer, opts...)
	if err != nil {
		return nil, err
	}
	payload, err := canonicalize(genesisPayload())
	if err != nil {
		return nil, err
	}
	genesis, err := newBlock(0, l.timestamp(), payload, GenesisPrevHash)
	if err != nil {
		return nil, err
	}
	l.blocks = []Block{genesis}
	l.observer.ChainLoaded(len(l.blocks))
	l.logger.Info("ledger initialized", "difficulty", l.difficulty, "genesis", genesis.Hash)
	return l, nil
}

func (l *Ledger) timestamp() time.Time {
	// Round(0) drops the monotonic reading so timestamps compare like decoded ones.
	return l.now().UTC().Round(0)
}

// Difficulty returns the proof-of-work difficulty fixed at construction.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// LogSecurityEvent normalizes and signs e, mines a block for it on top of the
// current tail and appends the block. It returns the new block hash. If an
// error is returned the chain is unchanged.
func (l *Ledger) LogSecurityEvent(e Event) (string, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	ts := l.timestamp()
	payload, err := canonicalize(e.payload(ts))
	if err != nil {
		return "", err
	}
	sig, err := l.signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign event: %w", err)
	}
	payload[FieldSignature] = sig

	chain := l.snapshot()
	tail := chain[len(chain)-1]
	block, err := newBlock(len(chain), ts, payload, tail.Hash)
	if err != nil {
		return "", err
	}

	start := time.Now()
	attempts, err := l.miner.FindNonce(&block, l.difficulty)
	if err != nil {
		return "", fmt.Errorf("failed to mine block %d: %w", block.Index, err)
	}
	elapsed := time.Since(start)
	if !MeetsDifficulty(block.Hash, l.difficulty) {
		return "", fmt.Errorf("%w: block %d hash %s, difficulty %d", ErrInsufficientWork, block.Index, block.Hash, l.difficulty)
	}
	l.observer.BlockMined(attempts, elapsed)
	l.logger.Debug("block mined", "index", block.Index, "nonce", block.Nonce, "attempts", attempts, "elapsed", elapsed)

	l.mu.Lock()
	l.blocks = append(l.blocks, block)
	length := len(l.blocks)
	l.mu.Unlock()

	l.observer.BlockAppended(length)
	l.logger.Info("security event recorded",
		"index", block.Index,
		"event_type", payload[FieldEventType],
		"severity", payload[FieldSeverity],
		"hash", block.Hash,
	)
	return block.Hash, nil
}

// LogEventMap logs a free-form event, see EventFromMap.
func (l *Ledger) LogEventMap(data map[string]any) (string, error) {
	return l.LogSecurityEvent(EventFromMap(data))
}

// snapshot returns the published chain. Blocks in the snapshot are never
// mutated and later appends do not affect it.
func (l *Ledger) snapshot() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[:len(l.blocks):len(l.blocks)]
}

// Len returns the number of blocks, genesis included.
func (l *Ledger) Len() int {
	return len(l.snapshot())
}

// Latest returns a copy of the tail block.
func (l *Ledger) Latest() Block {
	chain := l.snapshot()
	return chain[len(chain)-1].clone()
}

// GetByIndex returns a copy of the block at index.
func (l *Ledger) GetByIndex(index int) (Block, error) {
	chain := l.snapshot()
	if index < 0 || index >= len(chain) {
		return Block{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return chain[index].clone(), nil
}

// Blocks returns a copy of the whole chain.
func (l *Ledger) Blocks() []Block {
	chain := l.snapshot()
	out := make([]Block, len(chain))
	for i, b := range chain {
		out[i] = b.clone()
	}
	return out
}

// Verify checks the chain and returns an *IntegrityError for the first block
// whose stored hash does not match its contents, whose index is out of
// sequence or whose link does not match its predecessor.
func (l *Ledger) Verify() error {
	err := l.verify(l.snapshot())
	l.observer.ChainVerified(err == nil)
	return err
}

// IsChainValid reports whether Verify finds no violation.
func (l *Ledger) IsChainValid() bool {
	return l.Verify() == nil
}

func (l *Ledger) verify(chain []Block) error {
	if len(chain) == 0 {
		return ErrEmptyChain
	}
	genesis := chain[0]
	if genesis.Index != 0 || genesis.PreviousHash != GenesisPrevHash {
		return &IntegrityError{Index: 0, Reason: "invalid genesis block"}
	}
	if err := validateHash(0, genesis); err != nil {
		return err
	}
	for i := 1; i < len(chain); i++ {
		if err := l.validateBlock(i, chain[i], chain[i-1]); err != nil {
			return err
		}
	}
	return nil
}

// validateBlock verifies the block at position pos against its predecessor.
func (l *Ledger) validateBlock(pos int, current, previous Block) error {
	if current.Index != previous.Index+1 {
		return &IntegrityError{
			Index:  pos,
			Reason: fmt.Sprintf("invalid index: expected %d, got %d", previous.Index+1, current.Index),
		}
	}
	if current.PreviousHash != previous.Hash {
		return &IntegrityError{
			Index:  pos,
			Reason: fmt.Sprintf("invalid previous hash: expected %s, got %s", previous.Hash, current.PreviousHash),
		}
	}
	if err := validateHash(pos, current); err != nil {
		return err
	}
	if l.checkDifficulty && !MeetsDifficulty(current.Hash, l.difficulty) {
		return &IntegrityError{
			Index:  pos,
			Reason: fmt.Sprintf("hash %s does not meet difficulty %d", current.Hash, l.difficulty),
		}
	}
	return nil
}

func validateHash(pos int, b Block) error {
	expected, err := b.ComputeHash()
	if err != nil {
		return &IntegrityError{Index: pos, Reason: err.Error()}
	}
	if b.Hash != expected {
		return &IntegrityError{
			Index:  pos,
			Reason: fmt.Sprintf("invalid hash: expected %s, got %s", expected, b.Hash),
		}
	}
	return nil
}

// VerifySignatures checks the payload signature of every non-genesis block
// with the ledger signer. It detects payload changes even when the tamperer
// rebuilt every hash and link.
func (l *Ledger) VerifySignatures() error {
	chain := l.snapshot()
	for i := 1; i < len(chain); i++ {
		payload := chain[i].Payload
		sig, _ := payload[FieldSignature].(string)
		if sig == "" {
			return &IntegrityError{Index: i, Reason: "missing signature"}
		}
		if err := l.signer.Verify(payload, sig); err != nil {
			return &IntegrityError{Index: i, Reason: err.Error()}
		}
	}
	return nil
}
