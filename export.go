package sealedsecrets

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"time"

	"github.com/awnumar/memguard"

	internalcrypto "github.com/shubhamksawant/SealedSecrets/internal/crypto"
)

// Keyset export/import. The core itself performs no persistence; these two
// functions produce and consume an opaque passphrase-encrypted blob so the
// external persistence collaborator (see the persist package) only ever
// handles ciphertext.

type serializedKeyPair struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Algorithm  uint8     `json:"algorithm"`
	PrivateKey []byte    `json:"private_key"` // PKCS#1 DER
}

type serializedKeyset struct {
	Keys []serializedKeyPair `json:"keys"` // newest first
}

// Export serializes every retained key pair, private components included,
// and encrypts the result under passphrase (Argon2id + ChaCha20-Poly1305).
// This is the only path by which private key material leaves the store.
func (ks *KeyStore) Export(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	keyset := serializedKeyset{}
	for _, kp := range ks.All() {
		buf, err := kp.private.Open()
		if err != nil {
			ks.audit.Log("export_keyset", false, map[string]interface{}{
				"error":  "failed to open private key enclave",
				"key_id": kp.ID,
			})
			return nil, fmt.Errorf("failed to open private key enclave: %w", err)
		}
		der := append([]byte(nil), buf.Bytes()...)
		buf.Destroy()

		keyset.Keys = append(keyset.Keys, serializedKeyPair{
			ID:         kp.ID,
			CreatedAt:  kp.CreatedAt,
			Algorithm:  uint8(kp.Algorithm),
			PrivateKey: der,
		})
	}

	plaintext, err := json.Marshal(keyset)
	wipeKeyset(&keyset)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize keyset: %w", err)
	}
	defer memguard.WipeBytes(plaintext)

	blob, err := internalcrypto.EncryptWithPassphrase(plaintext, passphrase)
	if err != nil {
		ks.audit.Log("export_keyset", false, map[string]interface{}{
			"error": "failed to encrypt keyset",
		})
		return nil, fmt.Errorf("failed to encrypt keyset: %w", err)
	}

	ks.audit.Log("export_keyset", true, map[string]interface{}{
		"keys": len(keyset.Keys),
	})

	return blob, nil
}

// Import decrypts a blob produced by Export and builds a key store holding
// the recovered keys, newest first, with the newest as current. A wrong
// passphrase and a corrupted blob both surface as the same generic decrypt
// failure; the AEAD cannot tell them apart.
func Import(blob []byte, passphrase string, opts *Options) (*KeyStore, error) {
	ks, err := NewKeyStore(opts)
	if err != nil {
		return nil, err
	}

	plaintext, err := internalcrypto.DecryptWithPassphrase(blob, passphrase)
	if err != nil {
		ks.audit.Log("import_keyset", false, map[string]interface{}{
			"error": "failed to decrypt keyset",
		})
		return nil, fmt.Errorf("failed to decrypt keyset: %w", err)
	}
	defer memguard.WipeBytes(plaintext)

	var keyset serializedKeyset
	if err = json.Unmarshal(plaintext, &keyset); err != nil {
		return nil, fmt.Errorf("failed to parse keyset: %w", err)
	}
	defer wipeKeyset(&keyset)

	keys := make([]*KeyPair, 0, len(keyset.Keys))
	for _, sk := range keyset.Keys {
		priv, err := x509.ParsePKCS1PrivateKey(sk.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key %s: %w", sk.ID, err)
		}
		keys = append(keys, &KeyPair{
			ID:        sk.ID,
			CreatedAt: sk.CreatedAt,
			Algorithm: AlgorithmID(sk.Algorithm),
			PublicKey: &priv.PublicKey,
			private:   memguard.NewEnclave(append([]byte(nil), sk.PrivateKey...)),
		})
	}

	ks.mu.Lock()
	ks.keys = keys
	ks.mu.Unlock()

	ks.audit.Log("import_keyset", true, map[string]interface{}{
		"keys": len(keys),
	})

	return ks, nil
}

func wipeKeyset(keyset *serializedKeyset) {
	for i := range keyset.Keys {
		memguard.WipeBytes(keyset.Keys[i].PrivateKey)
	}
}
