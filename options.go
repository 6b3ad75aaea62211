package sealedsecrets

import (
	"fmt"

	"github.com/shubhamksawant/SealedSecrets/audit"
	"github.com/shubhamksawant/SealedSecrets/internal/misc"
)

// Options carries the configuration shared by the key store, sealer and
// unsealer. The zero value is not usable; start from DefaultOptions and
// override what you need.
//
// Nothing in Options is secret, so the whole struct is safe to log or
// serialize. Key material never lives here: private keys stay inside the
// KeyStore's enclaves and per-seal session keys never leave the stack of a
// single Seal call.
type Options struct {
	// MaxPlaintextSize is the largest plaintext Seal accepts, in bytes.
	// Larger inputs fail with ErrOversizedInput before any key material is
	// touched.
	MaxPlaintextSize int `json:"max_plaintext_size"`

	// Algorithm is the cipher suite used for new seals. Unsealing is
	// driven by the tag inside each envelope, so changing this does not
	// invalidate existing ciphertexts.
	Algorithm AlgorithmID `json:"algorithm"`

	// KeySize is the RSA modulus size in bits for newly generated key
	// pairs. Must be at least 2048.
	KeySize int `json:"key_size"`

	// AuditConfig selects the audit backend. Nil disables auditing (a
	// no-op logger is installed).
	AuditConfig *audit.Config `json:"audit,omitempty"`
}

// DefaultOptions returns the recommended configuration: 10MB plaintext
// ceiling, RSA-OAEP + AES-256-GCM, 4096-bit keys, auditing disabled.
func DefaultOptions() *Options {
	return &Options{
		MaxPlaintextSize: misc.MaxPlaintextSize,
		Algorithm:        AlgorithmRSAOAEPAESGCM,
		KeySize:          misc.DefaultKeySize,
	}
}

// Validate checks the options for internal consistency. It is called by
// every constructor that accepts Options, so manual calls are only needed
// when options cross a trust boundary before use.
func (o *Options) Validate() error {
	if o.MaxPlaintextSize <= 0 {
		return fmt.Errorf("max plaintext size must be positive, got %d", o.MaxPlaintextSize)
	}
	if o.KeySize < misc.MinKeySize {
		return fmt.Errorf("key size must be at least %d bits, got %d", misc.MinKeySize, o.KeySize)
	}
	if _, err := LookupAlgorithm(o.Algorithm); err != nil {
		return fmt.Errorf("algorithm not registered: %w", err)
	}
	return nil
}

// auditLogger resolves the configured audit backend, falling back to the
// no-op logger when auditing is disabled.
func (o *Options) auditLogger() (audit.Logger, error) {
	return audit.NewLogger(o.AuditConfig)
}
