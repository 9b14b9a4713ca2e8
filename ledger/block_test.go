package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"
)

// TestComputeHashMatchesCanonicalJSON verifies that the cached digest input is
// exactly the sorted-key JSON object of the hashed fields.
func TestComputeHashMatchesCanonicalJSON(t *testing.T) {
	payload, err := canonicalize(map[string]any{
		"zeta":  "last",
		"alpha": map[string]any{"b": 2, "a": []any{1, "x"}},
		"html":  "<script>&",
	})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	b, err := newBlock(3, ts, payload, "abc")
	if err != nil {
		t.Fatalf("newBlock: %v", err)
	}
	b.Nonce = 42

	raw, err := stableJSON(map[string]any{
		"index":         3,
		"timestamp":     ts.UnixNano(),
		"payload":       payload,
		"previous_hash": "abc",
		"nonce":         uint64(42),
	})
	if err != nil {
		t.Fatalf("stableJSON: %v", err)
	}
	digest := sha256.Sum256(raw)
	expected := hex.EncodeToString(digest[:])

	got, err := b.ComputeHash()
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	if got != expected {
		t.Fatalf("hash mismatch:\n got  %s\n want %s\n input %s", got, expected, raw)
	}
}

func TestNewBlockStartsAtNonceZero(t *testing.T) {
	b, err := newBlock(1, time.Now(), map[string]any{}, "prev")
	if err != nil {
		t.Fatalf("newBlock: %v", err)
	}
	if b.Nonce != 0 {
		t.Fatalf("expected nonce 0, got %d", b.Nonce)
	}
	h, _ := b.ComputeHash()
	if b.Hash != h {
		t.Fatal("initial hash should match the block contents")
	}
}

func TestMeetsDifficulty(t *testing.T) {
	tests := []struct {
		hash       string
		difficulty int
		want       bool
	}{
		{"abc", 0, true},
		{"0abc", 1, true},
		{"00ab", 2, true},
		{"0a0b", 2, false},
		{"00", 3, false},
		{"", -1, true},
	}
	for _, tt := range tests {
		if got := MeetsDifficulty(tt.hash, tt.difficulty); got != tt.want {
			t.Fatalf("MeetsDifficulty(%q, %d) = %v, want %v", tt.hash, tt.difficulty, got, tt.want)
		}
	}
}

func TestProofOfWorkFindNonce(t *testing.T) {
	b, err := newBlock(1, time.Now(), map[string]any{"event_type": "port_scan"}, "prev")
	if err != nil {
		t.Fatalf("newBlock: %v", err)
	}
	attempts, err := ProofOfWork{}.FindNonce(&b, 2)
	if err != nil {
		t.Fatalf("FindNonce: %v", err)
	}
	if !MeetsDifficulty(b.Hash, 2) {
		t.Fatalf("mined hash %s does not meet difficulty 2", b.Hash)
	}
	if attempts != b.Nonce+1 {
		t.Fatalf("expected %d attempts, got %d", b.Nonce+1, attempts)
	}
	h, _ := b.ComputeHash()
	if h != b.Hash {
		t.Fatal("mined hash should match the block contents")
	}
}

func TestProofOfWorkCountsInitialHash(t *testing.T) {
	b, err := newBlock(1, time.Now(), map[string]any{}, "prev")
	if err != nil {
		t.Fatalf("newBlock: %v", err)
	}
	attempts, err := ProofOfWork{}.FindNonce(&b, 0)
	if err != nil || attempts != 1 || b.Nonce != 0 {
		t.Fatalf("expected the initial hash to count as one attempt, got %d attempts nonce %d, %v", attempts, b.Nonce, err)
	}
}

func TestNoWorkLeavesBlockUntouched(t *testing.T) {
	b, _ := newBlock(1, time.Now(), map[string]any{}, "prev")
	before := b
	attempts, err := NoWork{}.FindNonce(&b, 4)
	if err != nil || attempts != 0 {
		t.Fatalf("unexpected result %d, %v", attempts, err)
	}
	if b.Nonce != before.Nonce || b.Hash != before.Hash {
		t.Fatal("NoWork must not change the block")
	}
}
