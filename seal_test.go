package sealedsecrets

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"testing"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	sealer, unsealer, ks := newTestPair(t)
	current, err := ks.Current()
	if err != nil {
		t.Fatalf("no current key: %v", err)
	}

	testCases := [][]byte{
		nil,                                  // Empty plaintext is valid
		[]byte(""),                           // So is the empty string
		[]byte("Hello, World!"),              // Simple string
		[]byte("Special chars: !@#$%^&*()_"), // Special characters
		[]byte("Unicode: こんにちは"),             // Non-ASCII characters
		bytes.Repeat([]byte{0x00}, 1024),     // All zeroes
		make([]byte, 10241),                  // Larger than 10KB
	}

	scope := StrictScope("default", "my-secret")
	for i, tc := range testCases {
		t.Run(fmt.Sprintf("Case_%d", i), func(t *testing.T) {
			env, err := sealer.Seal(tc, scope, current.PublicKey)
			if err != nil {
				t.Fatalf("failed to seal: %v", err)
			}

			plaintext, err := unsealer.Unseal(context.Background(), env, scope)
			if err != nil {
				t.Fatalf("failed to unseal: %v", err)
			}
			if !bytes.Equal(plaintext, tc) {
				t.Errorf("round trip mismatch: sealed %d bytes, recovered %d", len(tc), len(plaintext))
			}
		})
	}
}

func TestSealRoundTripAllAlgorithms(t *testing.T) {
	ks := newTestKeyStore(t)
	current, err := ks.Current()
	if err != nil {
		t.Fatalf("no current key: %v", err)
	}

	for _, algID := range []AlgorithmID{AlgorithmRSAOAEPAESGCM, AlgorithmRSAOAEPChaCha20Poly1305} {
		alg, err := LookupAlgorithm(algID)
		if err != nil {
			t.Fatalf("algorithm not registered: %v", err)
		}

		t.Run(alg.Name, func(t *testing.T) {
			opts := testOptions()
			opts.Algorithm = algID

			sealer, err := NewSealer(opts)
			if err != nil {
				t.Fatalf("failed to create sealer: %v", err)
			}
			unsealer, err := NewUnsealer(ks, opts)
			if err != nil {
				t.Fatalf("failed to create unsealer: %v", err)
			}

			scope := NamespaceWideScope("prod")
			env, err := sealer.Seal([]byte("payload"), scope, current.PublicKey)
			if err != nil {
				t.Fatalf("failed to seal: %v", err)
			}
			if env.Algorithm != algID {
				t.Errorf("envelope carries algorithm 0x%02x, want 0x%02x", uint8(env.Algorithm), uint8(algID))
			}

			plaintext, err := unsealer.Unseal(context.Background(), env, scope)
			if err != nil {
				t.Fatalf("failed to unseal: %v", err)
			}
			if string(plaintext) != "payload" {
				t.Errorf("unexpected plaintext: %q", plaintext)
			}
		})
	}
}

func TestSealOversizedInput(t *testing.T) {
	opts := testOptions()
	opts.MaxPlaintextSize = 64

	sealer, err := NewSealer(opts)
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	ks := newTestKeyStore(t)
	current, _ := ks.Current()

	if _, err = sealer.Seal(make([]byte, 64), StrictScope("ns", "n"), current.PublicKey); err != nil {
		t.Errorf("plaintext at the limit should seal, got: %v", err)
	}

	_, err = sealer.Seal(make([]byte, 65), StrictScope("ns", "n"), current.PublicKey)
	if !errors.Is(err, ErrOversizedInput) {
		t.Errorf("expected ErrOversizedInput, got: %v", err)
	}
}

func TestSealNonDeterminism(t *testing.T) {
	sealer, unsealer, ks := newTestPair(t)
	current, _ := ks.Current()

	scope := StrictScope("default", "my-secret")
	plaintext := []byte("identical input")

	first, err := sealer.Seal(plaintext, scope, current.PublicKey)
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}
	second, err := sealer.Seal(plaintext, scope, current.PublicKey)
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}

	if first.Equal(second) {
		t.Error("two seals of identical input produced identical envelopes")
	}
	if bytes.Equal(first.Nonce, second.Nonce) {
		t.Error("nonce reuse across seals")
	}
	if bytes.Equal(first.Ciphertext, second.Ciphertext) {
		t.Error("identical ciphertexts across seals")
	}

	// Both must still unseal independently.
	for i, env := range []*Envelope{first, second} {
		got, err := unsealer.Unseal(context.Background(), env, scope)
		if err != nil {
			t.Fatalf("failed to unseal envelope %d: %v", i, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("envelope %d unsealed to wrong plaintext", i)
		}
	}
}

func TestSealRejectsBadPublicKey(t *testing.T) {
	sealer, err := NewSealer(testOptions())
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}

	if _, err = sealer.Seal([]byte("x"), ClusterWideScope(), nil); err == nil {
		t.Error("expected error for nil public key")
	}

	weak, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("failed to generate weak key: %v", err)
	}
	if _, err = sealer.Seal([]byte("x"), ClusterWideScope(), &weak.PublicKey); err == nil {
		t.Error("expected error for undersized public key")
	}
}

func TestSealTextRoundTrip(t *testing.T) {
	sealer, unsealer, ks := newTestPair(t)
	current, _ := ks.Current()

	scope := StrictScope("default", "my-secret")
	text, err := sealer.SealText([]byte("hunter2"), scope, current.PublicKey)
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}

	plaintext, err := unsealer.UnsealText(context.Background(), text, scope)
	if err != nil {
		t.Fatalf("failed to unseal: %v", err)
	}
	if string(plaintext) != "hunter2" {
		t.Errorf("unexpected plaintext: %q", plaintext)
	}
}
