package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
)

// GenesisPrevHash is the predecessor link stored in the genesis block.
const GenesisPrevHash = "0"

// Block is one record of the ledger. Once a block has been appended none of
// its fields change.
type Block struct {
	Index        int            `json:"index"`
	Timestamp    time.Time      `json:"timestamp"`
	Payload      map[string]any `json:"payload"`
	PreviousHash string         `json:"previous_hash"`
	Nonce        uint64         `json:"nonce"`
	Hash         string         `json:"hash"`
}

// newBlock builds an unmined block with nonce 0 and its initial hash. The
// payload must already be canonical.
func newBlock(index int, timestamp time.Time, payload map[string]any, previousHash string) (Block, error) {
	b := Block{
		Index:        index,
		Timestamp:    timestamp,
		Payload:      payload,
		PreviousHash: previousHash,
	}
	h, err := b.ComputeHash()
	if err != nil {
		return Block{}, err
	}
	b.Hash = h
	return b, nil
}

// ComputeHash recomputes the SHA-256 digest of the block from its stored
// index, timestamp, payload, previous hash and nonce. The digest input is the
// JSON object of those fields with keys sorted at every depth, so field order
// never affects the result.
func (b *Block) ComputeHash() (string, error) {
	h, err := b.hasher()
	if err != nil {
		return "", err
	}
	return h.sum(b.Nonce), nil
}

// blockHasher caches everything of the digest input except the nonce, which
// sits between "index" and "payload" in sorted key order.
type blockHasher struct {
	prefix []byte
	suffix []byte
	buf    []byte
}

// Timestamps are hashed as Unix nanoseconds, which only an int64 range of
// instants can represent.
var (
	minHashTime = time.Unix(0, math.MinInt64)
	maxHashTime = time.Unix(0, math.MaxInt64)
)

func (b *Block) hasher() (*blockHasher, error) {
	if b.Timestamp.Before(minHashTime) || b.Timestamp.After(maxHashTime) {
		return nil, fmt.Errorf("%w: block %d at %s", ErrTimestampRange, b.Index, b.Timestamp.Format(time.RFC3339))
	}
	payload, err := stableJSON(b.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload of block %d: %w", b.Index, err)
	}
	prev, err := stableJSON(b.PreviousHash)
	if err != nil {
		return nil, err
	}

	prefix := []byte(`{"index":`)
	prefix = strconv.AppendInt(prefix, int64(b.Index), 10)
	prefix = append(prefix, `,"nonce":`...)

	suffix := []byte(`,"payload":`)
	suffix = append(suffix, payload...)
	suffix = append(suffix, `,"previous_hash":`...)
	suffix = append(suffix, prev...)
	suffix = append(suffix, `,"timestamp":`...)
	suffix = strconv.AppendInt(suffix, b.Timestamp.UnixNano(), 10)
	suffix = append(suffix, '}')

	return &blockHasher{prefix: prefix, suffix: suffix}, nil
}

func (h *blockHasher) sum(nonce uint64) string {
	h.buf = append(h.buf[:0], h.prefix...)
	h.buf = strconv.AppendUint(h.buf, nonce, 10)
	h.buf = append(h.buf, h.suffix...)
	digest := sha256.Sum256(h.buf)
	return hex.EncodeToString(digest[:])
}

// clone returns a copy of the block that shares no mutable state with b.
func (b Block) clone() Block {
	b.Payload = cloneMap(b.Payload)
	return b
}
