package sealedsecrets

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// EnvelopeVersion is the envelope wire format version this build writes.
// The version byte leads the binary layout so future formats can be added
// without breaking the ability to decode existing envelopes.
const EnvelopeVersion uint8 = 0x01

// Envelope is the sealed-value structure: everything an unsealer needs
// except the private key. It is produced once by Seal, never mutated, and
// only ever consumed by Unseal.
//
// WIRE FORMAT (version 0x01), base64 (standard alphabet) over:
//
//	[1 byte:  format version]
//	[1 byte:  algorithm tag]
//	[2 bytes: wrapped key length (big-endian)]
//	[N bytes: wrapped session key]
//	[1 byte:  nonce length]
//	[M bytes: nonce]
//	[4 bytes: ciphertext length (big-endian)]
//	[P bytes: ciphertext + authentication tag]
//
// Every variable-length field is length-prefixed, so decoding is unambiguous
// and trailing garbage is detectable. The nonce length is
// carried explicitly rather than derived from the algorithm tag so that a
// decoder can round-trip envelopes sealed under suites it does not know;
// rejecting those is Unseal's job, not the codec's.
type Envelope struct {
	Version    uint8
	Algorithm  AlgorithmID
	WrappedKey []byte
	Nonce      []byte
	Ciphertext []byte
}

// Encode serializes the envelope to its transport-safe text form. The
// output is printable (base64) so it can be embedded in manifests, config
// files and CI logs owned by external collaborators.
func (e *Envelope) Encode() string {
	buf := make([]byte, 0, 1+1+2+len(e.WrappedKey)+1+len(e.Nonce)+4+len(e.Ciphertext))
	buf = append(buf, e.Version, byte(e.Algorithm))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(e.WrappedKey)))
	buf = append(buf, e.WrappedKey...)
	buf = append(buf, byte(len(e.Nonce)))
	buf = append(buf, e.Nonce...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(e.Ciphertext)))
	buf = append(buf, e.Ciphertext...)
	return base64.StdEncoding.EncodeToString(buf)
}

// Decode parses envelope text produced by Encode. It fails with an error
// wrapping ErrInvalidEnvelope on malformed, truncated or non-conforming
// input; Decode(Encode(e)) reproduces e exactly for every valid envelope.
func Decode(text string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64", ErrInvalidEnvelope)
	}

	// version + algorithm + wrapped key length
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidEnvelope)
	}
	if raw[0] != EnvelopeVersion {
		return nil, fmt.Errorf("%w: unknown version byte 0x%02x", ErrInvalidEnvelope, raw[0])
	}

	env := &Envelope{
		Version:   raw[0],
		Algorithm: AlgorithmID(raw[1]),
	}
	pos := 2

	wrappedLen := int(binary.BigEndian.Uint16(raw[pos : pos+2]))
	pos += 2
	if wrappedLen == 0 || pos+wrappedLen > len(raw) {
		return nil, fmt.Errorf("%w: bad wrapped key length", ErrInvalidEnvelope)
	}
	env.WrappedKey = append([]byte(nil), raw[pos:pos+wrappedLen]...)
	pos += wrappedLen

	if pos >= len(raw) {
		return nil, fmt.Errorf("%w: truncated before nonce", ErrInvalidEnvelope)
	}
	nonceLen := int(raw[pos])
	pos++
	if nonceLen == 0 || pos+nonceLen > len(raw) {
		return nil, fmt.Errorf("%w: bad nonce length", ErrInvalidEnvelope)
	}
	env.Nonce = append([]byte(nil), raw[pos:pos+nonceLen]...)
	pos += nonceLen

	if pos+4 > len(raw) {
		return nil, fmt.Errorf("%w: truncated before ciphertext", ErrInvalidEnvelope)
	}
	ctLen64 := binary.BigEndian.Uint32(raw[pos : pos+4])
	pos += 4
	if ctLen64 > math.MaxInt32 {
		return nil, fmt.Errorf("%w: bad ciphertext length", ErrInvalidEnvelope)
	}
	ctLen := int(ctLen64)
	if pos+ctLen != len(raw) {
		// Short data and trailing garbage both land here.
		return nil, fmt.Errorf("%w: ciphertext length mismatch", ErrInvalidEnvelope)
	}
	env.Ciphertext = append([]byte(nil), raw[pos:pos+ctLen]...)

	return env, nil
}

// Equal reports whether two envelopes are byte-for-byte identical.
func (e *Envelope) Equal(other *Envelope) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Version == other.Version &&
		e.Algorithm == other.Algorithm &&
		bytes.Equal(e.WrappedKey, other.WrappedKey) &&
		bytes.Equal(e.Nonce, other.Nonce) &&
		bytes.Equal(e.Ciphertext, other.Ciphertext)
}
