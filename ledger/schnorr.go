package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
)

var suite suites.Suite = suites.MustFind("Ed25519")

var ErrNoPrivateKey = errors.New("signer holds no private key")

// SchnorrSigner signs payloads with Schnorr signatures on Ed25519. Unlike a
// SecretSigner, a verifier built from the public key alone cannot sign.
type SchnorrSigner struct {
	private kyber.Scalar
	public  kyber.Point
}

// NewSchnorrSigner generates a fresh key pair.
func NewSchnorrSigner() *SchnorrSigner {
	private := suite.Scalar().Pick(suite.RandomStream())
	return &SchnorrSigner{
		private: private,
		public:  suite.Point().Mul(private, nil),
	}
}

// NewSchnorrVerifier returns a signer that can only verify signatures made by
// the holder of the private key matching public.
func NewSchnorrVerifier(public []byte) (*SchnorrSigner, error) {
	p := suite.Point()
	if err := p.UnmarshalBinary(public); err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return &SchnorrSigner{public: p}, nil
}

// PublicKey returns the marshaled public key.
func (s *SchnorrSigner) PublicKey() ([]byte, error) {
	return s.public.MarshalBinary()
}

// Sign returns a hex encoded Schnorr signature. It fails with ErrNoPrivateKey
// on a verify-only signer.
func (s *SchnorrSigner) Sign(payload map[string]any) (string, error) {
	if s.private == nil {
		return "", ErrNoPrivateKey
	}
	msg, err := stableJSON(withoutSignature(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	sig, err := schnorr.Sign(suite, s.private, msg)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// Verify checks signature against the public key.
func (s *SchnorrSigner) Verify(payload map[string]any, signature string) error {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	msg, err := stableJSON(withoutSignature(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	if err := schnorr.Verify(suite, s.public, msg, sig); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
