package sealedsecrets

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/shubhamksawant/SealedSecrets/audit"
)

// Unsealer recovers plaintext from sealed values using the key store's
// retained private keys. Like the Sealer it holds no mutable state of its
// own; each Unseal call works on a consistent snapshot of the key store and
// is safe to run concurrently with rotations and other unseals.
type Unsealer struct {
	store *KeyStore
	opts  *Options
	audit audit.Logger
}

// NewUnsealer creates an unsealer backed by store.
func NewUnsealer(store *KeyStore, opts *Options) (*Unsealer, error) {
	if store == nil {
		return nil, fmt.Errorf("key store cannot be nil")
	}
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

	return &Unsealer{store: store, opts: opts, audit: logger}, nil
}

// Unseal recovers the plaintext of env, supplied under scope.
//
// ALGORITHM:
// The envelope's version and algorithm tag are checked first; unknown
// values fail fast with ErrUnsupportedEnvelope before any key is tried.
// Retained keys are then tried newest to oldest: unwrap the session key,
// then attempt the AEAD open against each scope AAD the supplied scope is
// allowed to satisfy (its own, then the wider ones; see Scope). The first
// success wins.
//
// KEY ROTATION:
// Because every retained key is tried, values sealed before any number of
// rotations keep unsealing with an unchanged call signature. Values sealed
// under a pruned key are gone for good.
//
// ERROR DISCIPLINE:
// Every failure past the envelope checks (no key unwraps, authentication
// tag mismatch, wrong scope) collapses into the one ErrUnsealFailed. The
// distinction would be an oracle for an attacker probing keys and scopes,
// so it is only recorded in the audit log, never in the returned error.
//
// CANCELLATION:
// ctx is consulted between key attempts. On expiry the remaining keys are
// abandoned and the error wraps ErrCancelled (never ErrUnsealFailed, since
// the verdict is unknown).
func (u *Unsealer) Unseal(ctx context.Context, env *Envelope, scope Scope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrInvalidEnvelope)
	}
	if env.Version != EnvelopeVersion {
		u.audit.Log("unseal", false, map[string]interface{}{
			"error": fmt.Sprintf("unsupported version 0x%02x", env.Version),
		})
		return nil, fmt.Errorf("%w: version 0x%02x", ErrUnsupportedEnvelope, env.Version)
	}
	alg, err := LookupAlgorithm(env.Algorithm)
	if err != nil {
		u.audit.Log("unseal", false, map[string]interface{}{
			"error": fmt.Sprintf("unsupported algorithm 0x%02x", uint8(env.Algorithm)),
		})
		return nil, err
	}

	aads := scope.candidates()
	keys := u.store.All()

	for _, kp := range keys {
		select {
		case <-ctx.Done():
			u.audit.Log("unseal", false, map[string]interface{}{
				"error": "cancelled",
				"scope": scope.String(),
			})
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		plaintext, ok := u.tryKey(kp, alg, env, aads)
		if ok {
			u.audit.Log("unseal", true, map[string]interface{}{
				"key_id":      kp.ID,
				"scope":       scope.String(),
				"result_size": len(plaintext),
			})
			return plaintext, nil
		}
	}

	// Internal diagnostics may say why; the returned error never does.
	u.audit.Log("unseal", false, map[string]interface{}{
		"error":      "no retained key opened the envelope",
		"scope":      scope.String(),
		"keys_tried": len(keys),
	})
	return nil, ErrUnsealFailed
}

// tryKey attempts a single key against the envelope: unwrap, then AEAD-open
// under each permitted AAD. All failure detail stays internal.
func (u *Unsealer) tryKey(kp *KeyPair, alg *Algorithm, env *Envelope, aads [][]byte) ([]byte, bool) {
	var sessionKey []byte
	err := kp.withPrivate(func(priv *rsa.PrivateKey) error {
		var unwrapErr error
		sessionKey, unwrapErr = unwrapSessionKey(priv, env.WrappedKey)
		return unwrapErr
	})
	if err != nil {
		// Wrong key or tampered wrapped-key bytes; indistinguishable by
		// construction of OAEP, and treated identically either way.
		return nil, false
	}
	defer memguard.WipeBytes(sessionKey)

	if len(sessionKey) != alg.KeySize {
		return nil, false
	}

	aead, err := alg.NewAEAD(sessionKey)
	if err != nil {
		return nil, false
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, false
	}

	for _, aad := range aads {
		if plaintext, openErr := aead.Open(nil, env.Nonce, env.Ciphertext, aad); openErr == nil {
			return plaintext, true
		}
	}
	return nil, false
}

// UnsealText decodes envelope text and unseals it in one step.
func (u *Unsealer) UnsealText(ctx context.Context, text string, scope Scope) ([]byte, error) {
	env, err := Decode(text)
	if err != nil {
		return nil, err
	}
	return u.Unseal(ctx, env, scope)
}

// Close releases the audit backend. The key store is shared and is not
// closed here.
func (u *Unsealer) Close() error {
	return u.audit.Close()
}
