package sealedsecrets

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/shubhamksawant/SealedSecrets/audit"
	"github.com/shubhamksawant/SealedSecrets/internal/misc"
)

// Sealer produces sealed values from plaintext, a scope and a public key.
// It holds no key material and no mutable state, so a single Sealer may be
// shared across goroutines without synchronization.
type Sealer struct {
	opts  *Options
	audit audit.Logger
}

// NewSealer creates a sealer with the given options (nil for defaults).
func NewSealer(opts *Options) (*Sealer, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logger, err := opts.auditLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create audit logger: %w", err)
	}

	return &Sealer{opts: opts, audit: logger}, nil
}

// Seal encrypts plaintext into an envelope bound to scope and decryptable
// only by the holder of the private half of pub.
//
// SECURITY FEATURES:
// - Hybrid encryption: a fresh random 256-bit session key per call,
//   AEAD-encrypted payload, session key wrapped with RSA-OAEP-SHA256
// - Scope binding: the scope's AAD is authenticated into the AEAD tag, so
//   a sealed value cannot be replayed under a different namespace/name
// - Non-determinism: the fresh session key and nonce make repeated seals of
//   identical plaintext produce unrelated envelopes, so an observer cannot
//   correlate identical secrets across documents
// - Session key material is wiped before Seal returns
//
// The empty plaintext is valid input: the envelope then carries only the
// authentication tag. Plaintext larger than the configured maximum fails
// with ErrOversizedInput.
//
// Seal never retries internally; the only plausibly transient failure is
// exhaustion of the system randomness source, which callers should treat as
// fatal anyway.
func (s *Sealer) Seal(plaintext []byte, scope Scope, pub *rsa.PublicKey) (*Envelope, error) {
	if pub == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}
	if pub.N.BitLen() < misc.MinKeySize {
		return nil, fmt.Errorf("public key must be at least %d bits, got %d", misc.MinKeySize, pub.N.BitLen())
	}
	if len(plaintext) > s.opts.MaxPlaintextSize {
		s.audit.Log("seal", false, map[string]interface{}{
			"error":     "plaintext too large",
			"data_size": len(plaintext),
			"scope":     scope.String(),
		})
		return nil, fmt.Errorf("%w: %d bytes (maximum %d)", ErrOversizedInput, len(plaintext), s.opts.MaxPlaintextSize)
	}

	alg, err := LookupAlgorithm(s.opts.Algorithm)
	if err != nil {
		return nil, err
	}

	// Fresh session key for this seal only.
	sessionKey := make([]byte, alg.KeySize)
	if _, err = rand.Read(sessionKey); err != nil {
		s.audit.Log("seal", false, map[string]interface{}{
			"error": "failed to generate session key",
		})
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	defer memguard.WipeBytes(sessionKey)

	aead, err := alg.NewAEAD(sessionKey)
	if err != nil {
		s.audit.Log("seal", false, map[string]interface{}{
			"error": "failed to create cipher",
		})
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		s.audit.Log("seal", false, map[string]interface{}{
			"error": "failed to generate nonce",
		})
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, scope.AAD())

	wrappedKey, err := wrapSessionKey(pub, sessionKey)
	if err != nil {
		s.audit.Log("seal", false, map[string]interface{}{
			"error": "failed to wrap session key",
		})
		return nil, fmt.Errorf("failed to wrap session key: %w", err)
	}

	env := &Envelope{
		Version:    EnvelopeVersion,
		Algorithm:  alg.ID,
		WrappedKey: wrappedKey,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}

	s.audit.Log("seal", true, map[string]interface{}{
		"data_size": len(plaintext),
		"scope":     scope.String(),
		"algorithm": alg.Name,
	})

	return env, nil
}

// SealText is a convenience wrapper around Seal that returns the envelope
// already encoded to its transport text form.
func (s *Sealer) SealText(plaintext []byte, scope Scope, pub *rsa.PublicKey) (string, error) {
	env, err := s.Seal(plaintext, scope, pub)
	if err != nil {
		return "", err
	}
	return env.Encode(), nil
}

// Close releases the audit backend.
func (s *Sealer) Close() error {
	return s.audit.Close()
}
