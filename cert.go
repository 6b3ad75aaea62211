package sealedsecrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"
)

// Public key export. Public key material is not secret, so none of these
// helpers require authorization; they exist so the sealing side of the
// system can fetch the wrapping key in a standard self-describing encoding.

const (
	pemTypePublicKey   = "PUBLIC KEY"
	pemTypeCertificate = "CERTIFICATE"
)

// FetchPublicKey returns the current key's public component as PEM-encoded
// PKIX bytes, the conventional interchange format for RSA public keys.
func (ks *KeyStore) FetchPublicKey() ([]byte, error) {
	kp, err := ks.Current()
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalPKIXPublicKey(kp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der}), nil
}

// Certificate wraps the current public key in a self-signed x509
// certificate valid for the given duration and returns it PEM-encoded. The
// certificate carries no identity beyond the supplied common name; it is a
// distribution container for the public key, not a trust assertion.
func (ks *KeyStore) Certificate(commonName string, validity time.Duration) ([]byte, error) {
	kp, err := ks.Current()
	if err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now,
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageKeyEncipherment,
		BasicConstraintsValid: true,
	}

	var der []byte
	err = kp.withPrivate(func(priv *rsa.PrivateKey) error {
		var signErr error
		der, signErr = x509.CreateCertificate(rand.Reader, template, template, kp.PublicKey, priv)
		return signErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: der}), nil
}

// ParsePublicKey loads an RSA public key from PEM bytes produced by
// FetchPublicKey or Certificate (or any standard tooling emitting the same
// block types).
func ParsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	switch block.Type {
	case pemTypePublicKey:
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
		}
		rsaKey, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA public key, got %T", pub)
		}
		return rsaKey, nil

	case pemTypeCertificate:
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("certificate key is not RSA, got %T", cert.PublicKey)
		}
		return rsaKey, nil
	}

	return nil, fmt.Errorf("unsupported PEM block type: %s", block.Type)
}
