package webhookutils

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSignature means a header or the body was absent; the key
	// was never consulted.
	ErrMissingSignature = errors.New("webhook: missing signature, timestamp or body")
	// ErrInvalidSignature means the request did not verify against the
	// configured key and must not be trusted.
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrInvalidPublicKey = errors.New("webhook: invalid public key")
)

// Verifier checks platform signatures against one application public key.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier parses a hex encoded Ed25519 public key.
func NewVerifier(publicKeyHex string) (*Verifier, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPublicKey, ed25519.PublicKeySize, len(raw))
	}
	return &Verifier{key: ed25519.PublicKey(raw)}, nil
}

// Verify checks the detached signature over timestamp || body.
func (v *Verifier) Verify(req SignedRequest) error {
	if req.Signature == "" || req.Timestamp == "" || len(req.Body) == 0 {
		return ErrMissingSignature
	}

	sig, err := hex.DecodeString(req.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}

	msg := make([]byte, 0, len(req.Timestamp)+len(req.Body))
	msg = append(msg, req.Timestamp...)
	msg = append(msg, req.Body...)
	if !ed25519.Verify(v.key, msg, sig) {
		return ErrInvalidSignature
	}
	return nil
}
