package crypto

import (
	"bytes"
	"testing"
)

func TestPassphraseRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("short"),
		[]byte(""),
		bytes.Repeat([]byte("long data "), 1000),
	}

	for i, data := range cases {
		encrypted, err := EncryptWithPassphrase(data, "test-passphrase")
		if err != nil {
			t.Fatalf("case %d: failed to encrypt: %v", i, err)
		}

		decrypted, err := DecryptWithPassphrase(encrypted, "test-passphrase")
		if err != nil {
			t.Fatalf("case %d: failed to decrypt: %v", i, err)
		}
		if !bytes.Equal(decrypted, data) {
			t.Errorf("case %d: round trip mismatch", i)
		}
	}
}

func TestPassphraseWrongPassphrase(t *testing.T) {
	encrypted, err := EncryptWithPassphrase([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	if _, err = DecryptWithPassphrase(encrypted, "wrong"); err == nil {
		t.Error("wrong passphrase must not decrypt")
	}
}

func TestPassphraseTamperDetection(t *testing.T) {
	encrypted, err := EncryptWithPassphrase([]byte("secret"), "pass")
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	encrypted[len(encrypted)-1] ^= 0x01
	if _, err = DecryptWithPassphrase(encrypted, "pass"); err == nil {
		t.Error("tampered blob must not decrypt")
	}
}

func TestPassphraseRejectsUnknownVersion(t *testing.T) {
	encrypted, err := EncryptWithPassphrase([]byte("secret"), "pass")
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	encrypted[0] = 0x7f
	if _, err = DecryptWithPassphrase(encrypted, "pass"); err == nil {
		t.Error("unknown version must be rejected")
	}
}

func TestPassphraseSaltUniqueness(t *testing.T) {
	first, err := EncryptWithPassphrase([]byte("same"), "pass")
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}
	second, err := EncryptWithPassphrase([]byte("same"), "pass")
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	if bytes.Equal(first, second) {
		t.Error("identical blobs for identical input: salt or nonce reuse")
	}
}

func TestPassphraseTooShort(t *testing.T) {
	if _, err := DecryptWithPassphrase([]byte{0x02, 0x01}, "pass"); err == nil {
		t.Error("truncated blob must be rejected")
	}
}

func TestCalculateChecksum(t *testing.T) {
	a := CalculateChecksum([]byte("data"))
	b := CalculateChecksum([]byte("data"))
	c := CalculateChecksum([]byte("other"))

	if a != b {
		t.Error("checksum not deterministic")
	}
	if a == c {
		t.Error("distinct data produced identical checksums")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
