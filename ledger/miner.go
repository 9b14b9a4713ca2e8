package ledger

import "strings"

// TargetMarker is the character a mined hash must start with, repeated
// difficulty times.
const TargetMarker = '0'

// DefaultDifficulty keeps proof-of-work well under a second on commodity
// hardware.
const DefaultDifficulty = 4

// maxDifficulty is the length of a hex encoded SHA-256 digest.
const maxDifficulty = 64

// Miner is the admission cost paid for every block before it is appended.
// FindNonce updates the nonce and hash of a block that is not yet part of the
// chain and returns the number of candidate hashes it checked, the block's
// initial hash included.
type Miner interface {
	FindNonce(b *Block, difficulty int) (uint64, error)
}

// ProofOfWork increments the nonce until the block hash starts with
// difficulty TargetMarker characters. Expected cost is 16^difficulty hashes
// and the search cannot be cancelled.
type ProofOfWork struct{}

// FindNonce searches nonces upward from the block's current one.
func (ProofOfWork) FindNonce(b *Block, difficulty int) (uint64, error) {
	if MeetsDifficulty(b.Hash, difficulty) {
		return 1, nil
	}
	h, err := b.hasher()
	if err != nil {
		return 0, err
	}
	target := strings.Repeat(string(TargetMarker), difficulty)
	attempts := uint64(1)
	for !strings.HasPrefix(b.Hash, target) {
		b.Nonce++
		b.Hash = h.sum(b.Nonce)
		attempts++
	}
	return attempts, nil
}

// NoWork accepts the block as built and checks nothing. The ledger still
// rejects the block unless its initial hash meets the difficulty, so pair it
// with difficulty 0.
type NoWork struct{}

func (NoWork) FindNonce(*Block, int) (uint64, error) { return 0, nil }

// MeetsDifficulty reports whether hash starts with difficulty TargetMarker
// characters.
func MeetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if len(hash) < difficulty {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if hash[i] != TargetMarker {
			return false
		}
	}
	return true
}
