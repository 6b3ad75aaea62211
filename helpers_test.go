package sealedsecrets

import (
	"testing"
)

// testOptions returns options tuned for tests: 2048-bit keys keep key
// generation fast while staying above the module's minimum.
func testOptions() *Options {
	opts := DefaultOptions()
	opts.KeySize = 2048
	return opts
}

// newTestKeyStore creates a key store with a single generated key.
func newTestKeyStore(t *testing.T) *KeyStore {
	t.Helper()

	ks, err := NewKeyStore(testOptions())
	if err != nil {
		t.Fatalf("failed to create key store: %v", err)
	}
	t.Cleanup(func() { ks.Close() })

	if _, err = ks.GenerateKey(); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return ks
}

// newTestPair creates a sealer and an unsealer sharing one key store.
func newTestPair(t *testing.T) (*Sealer, *Unsealer, *KeyStore) {
	t.Helper()

	ks := newTestKeyStore(t)

	sealer, err := NewSealer(testOptions())
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	t.Cleanup(func() { sealer.Close() })

	unsealer, err := NewUnsealer(ks, testOptions())
	if err != nil {
		t.Fatalf("failed to create unsealer: %v", err)
	}
	t.Cleanup(func() { unsealer.Close() })

	return sealer, unsealer, ks
}
