package ledger

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// Signer binds an event payload to a key. Sign and Verify operate on the
// payload without its signature field.
type Signer interface {
	Sign(payload map[string]any) (string, error)
	Verify(payload map[string]any, signature string) error
}

var (
	ErrEmptySecret      = errors.New("signing secret must not be empty")
	ErrInvalidSignature = errors.New("invalid signature")
)

// SecretSigner signs with SHA-256 over a shared secret followed by the
// canonical JSON of the payload. The secret is fixed at construction.
type SecretSigner struct {
	secret []byte
}

// NewSecretSigner copies secret, so later changes to the caller's slice do not
// affect the signer.
func NewSecretSigner(secret []byte) (*SecretSigner, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &SecretSigner{secret: append([]byte(nil), secret...)}, nil
}

// Sign returns the hex digest of the secret and payload.
func (s *SecretSigner) Sign(payload map[string]any) (string, error) {
	body, err := stableJSON(withoutSignature(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	h := sha256.New()
	h.Write(s.secret)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the digest and compares it in constant time.
func (s *SecretSigner) Verify(payload map[string]any, signature string) error {
	expected, err := s.Sign(payload)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
