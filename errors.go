package sealedsecrets

import "errors"

// Error taxonomy for the sealing core. Callers are expected to test with
// errors.Is; the concrete messages wrapped around these sentinels carry no
// information an attacker could use to probe keys or scopes.
var (
	// ErrInvalidEnvelope is returned by Decode for malformed, truncated or
	// otherwise non-conforming envelope text.
	ErrInvalidEnvelope = errors.New("invalid envelope format")

	// ErrUnsupportedEnvelope is returned by Unseal when an envelope carries
	// a version or algorithm tag this build does not know. The envelope may
	// be valid for a newer build; no key is ever tried against it.
	ErrUnsupportedEnvelope = errors.New("unsupported envelope version or algorithm")

	// ErrOversizedInput is returned by Seal when the plaintext exceeds the
	// configured maximum.
	ErrOversizedInput = errors.New("plaintext exceeds maximum size")

	// ErrUnsealFailed is the single external error for every unseal
	// failure: no retained key unwraps the session key, the ciphertext was
	// tampered with, or the supplied scope is incompatible with the sealing
	// scope. The causes are deliberately not distinguishable from the
	// returned error; the audit log records the distinction.
	ErrUnsealFailed = errors.New("unable to unseal value")

	// ErrKeyGenerationFailed is returned by GenerateKey when randomness or
	// RSA key generation fails. Fatal to that rotation only; existing keys
	// and in-flight operations are unaffected.
	ErrKeyGenerationFailed = errors.New("key generation failed")

	// ErrCancelled is returned when the caller's context expires mid
	// operation. Distinct from ErrUnsealFailed: the remaining keys were
	// never tried.
	ErrCancelled = errors.New("operation cancelled")

	// ErrNoCurrentKey is returned when the key store holds no keys at all.
	ErrNoCurrentKey = errors.New("key store has no current key")
)
