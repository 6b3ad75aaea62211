package sealedsecrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"

	"github.com/shubhamksawant/SealedSecrets/audit"
)

// KeyPair is one asymmetric sealing key: a public component handed out for
// sealing, and a private component held in a memguard enclave and used only
// during unseal. The private component is never serialized alongside sealed
// data; Export is the only way it leaves the process, and only under a
// passphrase.
type KeyPair struct {
	// ID uniquely identifies the pair across rotations.
	ID string

	// CreatedAt is the generation timestamp; Prune compares against it.
	CreatedAt time.Time

	// Algorithm is the cipher suite this pair seals with by default.
	Algorithm AlgorithmID

	// PublicKey is the key-wrapping public component.
	PublicKey *rsa.PublicKey

	// private holds the PKCS#1 DER encoding of the RSA private key inside
	// a protected enclave. Opened briefly per unwrap attempt.
	private *memguard.Enclave
}

// withPrivate opens the enclave, parses the private key and hands it to fn.
// The decrypted enclave buffer is destroyed before withPrivate returns.
func (kp *KeyPair) withPrivate(fn func(*rsa.PrivateKey) error) error {
	buf, err := kp.private.Open()
	if err != nil {
		return fmt.Errorf("failed to open private key enclave: %w", err)
	}
	defer buf.Destroy()

	priv, err := x509.ParsePKCS1PrivateKey(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}

	return fn(priv)
}

// KeyStore owns the sealing key pairs and their lifecycle: generation,
// rotation, pruning, and public key exposure. It is the only shared mutable
// state in this module.
//
// CONCURRENCY MODEL:
// Mutations (GenerateKey, Prune) are serialized by a write lock and swap in
// a freshly built slice; readers (Current, All) take a read lock and copy
// the slice header, so a reader can never observe a partially updated key
// list, even mid-rotation. Sealers and unsealers operate on the snapshot
// they took and are unaffected by rotations that happen after.
//
// KEY ROTATION:
// GenerateKey prepends a new pair and makes it current. Prior keys are
// retained indefinitely so that old ciphertexts keep unsealing; only an
// explicit Prune removes them, invalidating every ciphertext sealed
// exclusively under a removed key.
type KeyStore struct {
	mu    sync.RWMutex
	keys  []*KeyPair // newest first; treated as immutable once installed
	opts  *Options
	audit audit.Logger
}

// NewKeyStore creates an empty key store. Call GenerateKey to create the
// first sealing key, or Import to load a previously exported keyset.
func NewKeyStore(opts *Options) (*KeyStore, error) {
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

	return &KeyStore{
		opts:  opts,
		audit: logger,
	}, nil
}

// GenerateKey creates a fresh RSA key pair, makes it the current sealing
// key and returns it. Earlier keys stay available for unsealing.
//
// Failure wraps ErrKeyGenerationFailed and is fatal to this call only: the
// store keeps its previous state and concurrent unseals are unaffected.
func (ks *KeyStore) GenerateKey() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, ks.opts.KeySize)
	if err != nil {
		ks.audit.Log("generate_key", false, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrKeyGenerationFailed, err)
	}

	der := x509.MarshalPKCS1PrivateKey(priv)
	kp := &KeyPair{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Algorithm: ks.opts.Algorithm,
		PublicKey: &priv.PublicKey,
		private:   memguard.NewEnclave(der),
	}
	// NewEnclave wipes der; priv still lives in GC memory until collected,
	// which is the best crypto/rsa allows.

	ks.mu.Lock()
	next := make([]*KeyPair, 0, len(ks.keys)+1)
	next = append(next, kp)
	next = append(next, ks.keys...)
	ks.keys = next
	ks.mu.Unlock()

	ks.audit.Log("generate_key", true, map[string]interface{}{
		"key_id":   kp.ID,
		"key_size": ks.opts.KeySize,
	})

	return kp, nil
}

// Current returns the newest key pair, the one Seal should wrap session
// keys with. Returns ErrNoCurrentKey when the store is empty.
func (ks *KeyStore) Current() (*KeyPair, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if len(ks.keys) == 0 {
		return nil, ErrNoCurrentKey
	}
	return ks.keys[0], nil
}

// All returns a snapshot of every retained key pair, newest first. The
// returned slice is the caller's to keep; subsequent rotations or prunes do
// not modify it.
func (ks *KeyStore) All() []*KeyPair {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return append([]*KeyPair(nil), ks.keys...)
}

// Len returns the number of retained key pairs.
func (ks *KeyStore) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return len(ks.keys)
}

// Prune removes every key pair created before olderThan, except the current
// key, which is always retained so the store can keep sealing. It returns
// the number of keys removed.
//
// Pruning is irreversible from the store's point of view: any ciphertext
// sealed exclusively under a pruned key can never be unsealed again unless
// the key was exported beforehand.
func (ks *KeyStore) Prune(olderThan time.Time) int {
	ks.mu.Lock()

	var kept []*KeyPair
	removed := 0
	for i, kp := range ks.keys {
		if i == 0 || !kp.CreatedAt.Before(olderThan) {
			kept = append(kept, kp)
			continue
		}
		removed++
	}
	ks.keys = kept
	ks.mu.Unlock()

	ks.audit.Log("prune_keys", true, map[string]interface{}{
		"older_than": olderThan.UTC().Format(time.RFC3339),
		"removed":    removed,
		"retained":   len(kept),
	})

	return removed
}

// Close releases the audit backend. Key enclaves need no explicit teardown;
// memguard wipes them when the process exits or the enclave is collected.
func (ks *KeyStore) Close() error {
	return ks.audit.Close()
}
