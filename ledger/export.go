package ledger

import (
	"encoding/json"
	"fmt"
	"io"
)

type chainExport struct {
	Difficulty int     `json:"difficulty"`
	Blocks     []Block `json:"blocks"`
}

// Export writes the chain and its difficulty as indented JSON.
func (l *Ledger) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(chainExport{
		Difficulty: l.difficulty,
		Blocks:     l.snapshot(),
	})
}

// Import rebuilds a ledger from the output of Export. The chain is not
// validated, so a tampered export can still be loaded and inspected with
// Verify. Options are applied after the exported difficulty.
func Import(r io.Reader, signer Signer, opts ...Option) (*Ledger, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc chainExport
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode chain: %w", err)
	}
	if len(doc.Blocks) == 0 {
		return nil, ErrEmptyChain
	}
	l, err := newLedger(signer, append([]Option{WithDifficulty(doc.Difficulty)}, opts...)...)
	if err != nil {
		return nil, err
	}
	l.blocks = doc.Blocks
	l.observer.ChainLoaded(len(l.blocks))
	l.logger.Info("ledger imported", "blocks", len(doc.Blocks), "difficulty", l.difficulty)
	return l, nil
}
