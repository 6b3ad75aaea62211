package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"github.com/shubhamksawant/SealedSecrets/internal/misc"
)

// Export blob versions. Version 1 blobs used PBKDF2-SHA256 for key
// derivation; version 2 uses Argon2id. New blobs are always written as
// version 2, version 1 remains readable.
const (
	exportVersionPBKDF2 = 0x01
	exportVersionArgon2 = 0x02
)

// EncryptWithPassphrase encrypts data using a passphrase with Argon2id + ChaCha20-Poly1305.
//
// Output layout: [1 byte version][32 bytes salt][12 bytes nonce][ciphertext+tag].
func EncryptWithPassphrase(data []byte, passphrase string) ([]byte, error) {
	// Generate random salt for the KDF
	salt := make([]byte, misc.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveArgon2Key([]byte(passphrase), salt)
	defer memguard.WipeBytes(key)

	// Create cipher
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Generate nonce
	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Encrypt
	ciphertext := aead.Seal(nil, nonce, data, nil)

	// Combine: version + salt + nonce + ciphertext
	result := make([]byte, 0, 1+len(salt)+len(nonce)+len(ciphertext))
	result = append(result, exportVersionArgon2)
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// DecryptWithPassphrase decrypts data produced by EncryptWithPassphrase.
// Version-1 blobs (PBKDF2 derivation) are still accepted.
func DecryptWithPassphrase(encryptedData []byte, passphrase string) ([]byte, error) {
	if len(encryptedData) < 1+misc.SaltSize+chacha20poly1305.NonceSize {
		return nil, errors.New("encrypted data too short")
	}

	version := encryptedData[0]
	salt := encryptedData[1 : 1+misc.SaltSize]
	nonce := encryptedData[1+misc.SaltSize : 1+misc.SaltSize+chacha20poly1305.NonceSize]
	ciphertext := encryptedData[1+misc.SaltSize+chacha20poly1305.NonceSize:]

	var key []byte
	switch version {
	case exportVersionArgon2:
		key = deriveArgon2Key([]byte(passphrase), salt)
	case exportVersionPBKDF2:
		key = pbkdf2.Key([]byte(passphrase), salt, misc.Pbkdf2Iterations, int(misc.ArgonKeyLen), sha256.New)
	default:
		return nil, fmt.Errorf("unknown export version: %d", version)
	}
	defer memguard.WipeBytes(key)

	// Create cipher
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Decrypt
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func deriveArgon2Key(passphrase, salt []byte) []byte {
	return argon2.IDKey(
		passphrase,
		salt,
		misc.ArgonTime,
		misc.ArgonMemory,
		misc.ArgonThreads,
		misc.ArgonKeyLen,
	)
}

// CalculateChecksum calculates SHA-256 checksum of data
func CalculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
