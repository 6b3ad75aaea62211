package sealedsecrets

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sort"
)

// SealedDocument is the external shape this core operates against: a
// namespace/name pair and a mapping of field name to encoded envelope. The
// document's lifecycle (parsing it out of a manifest, storing it, turning
// unsealed fields into a runtime object) belongs to external collaborators;
// the helpers here only walk the fields.
type SealedDocument struct {
	Namespace string
	Name      string

	// Mode selects the scope every field is bound to. Strict documents
	// bind each field to this exact namespace/name.
	Mode ScopeMode

	// Fields maps field name to envelope text as produced by Encode.
	Fields map[string]string
}

// Scope returns the scope descriptor this document's fields are sealed
// under.
func (d *SealedDocument) Scope() Scope {
	switch d.Mode {
	case ScopeNamespaceWide:
		return NamespaceWideScope(d.Namespace)
	case ScopeClusterWide:
		return ClusterWideScope()
	default:
		return StrictScope(d.Namespace, d.Name)
	}
}

// SealDocument seals every field of fields into a SealedDocument bound to
// namespace/name under the given scope mode. Field order does not matter;
// each field gets its own session key and nonce.
func (s *Sealer) SealDocument(namespace, name string, mode ScopeMode, fields map[string][]byte, pub *rsa.PublicKey) (*SealedDocument, error) {
	doc := &SealedDocument{
		Namespace: namespace,
		Name:      name,
		Mode:      mode,
		Fields:    make(map[string]string, len(fields)),
	}
	scope := doc.Scope()

	// Deterministic iteration keeps failures stable for the caller.
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	for _, field := range names {
		text, err := s.SealText(fields[field], scope, pub)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		doc.Fields[field] = text
	}

	return doc, nil
}

// UnsealDocument unseals every field of doc and returns the field name to
// plaintext mapping.
//
// Materialization is all-or-nothing: a failure on any field discards the
// plaintexts already recovered and returns an error naming the field. A
// failure on one field cannot corrupt the handling of its siblings, since
// each field is an independent envelope, but handing a partially decrypted
// document to the assembler invites half-configured runtime objects, so
// partial success is not offered here.
func (u *Unsealer) UnsealDocument(ctx context.Context, doc *SealedDocument) (map[string][]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	scope := doc.Scope()

	out := make(map[string][]byte, len(doc.Fields))
	for field, text := range doc.Fields {
		plaintext, err := u.UnsealText(ctx, text, scope)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		out[field] = plaintext
	}

	return out, nil
}
