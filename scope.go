package sealedsecrets

import (
	"encoding/binary"
	"fmt"
)

// ScopeMode selects how tightly a sealed value is bound to its document.
// The modes are strictly ordered by specificity: a value sealed ClusterWide
// unseals anywhere, a value sealed NamespaceWide unseals for any document
// name within its namespace, and a value sealed Strict unseals only for the
// exact namespace/name pair it was sealed for.
type ScopeMode uint8

const (
	// ScopeStrict binds the sealed value to an exact namespace and name.
	ScopeStrict ScopeMode = iota

	// ScopeNamespaceWide binds the sealed value to a namespace; the
	// document name is free to change.
	ScopeNamespaceWide

	// ScopeClusterWide does not bind the sealed value to any namespace or
	// name. Anyone able to reach the private keys can unseal it under any
	// document identity.
	ScopeClusterWide
)

func (m ScopeMode) String() string {
	switch m {
	case ScopeStrict:
		return "strict"
	case ScopeNamespaceWide:
		return "namespace-wide"
	case ScopeClusterWide:
		return "cluster-wide"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Scope describes the logical location a sealed value is bound to. A Scope
// is immutable once a value has been sealed with it: unsealing under a
// different, incompatible scope fails with ErrUnsealFailed.
type Scope struct {
	Mode      ScopeMode
	Namespace string
	Name      string
}

// StrictScope binds to the exact namespace/name pair.
func StrictScope(namespace, name string) Scope {
	return Scope{Mode: ScopeStrict, Namespace: namespace, Name: name}
}

// NamespaceWideScope binds to the namespace only.
func NamespaceWideScope(namespace string) Scope {
	return Scope{Mode: ScopeNamespaceWide, Namespace: namespace}
}

// ClusterWideScope binds to nothing.
func ClusterWideScope() Scope {
	return Scope{Mode: ScopeClusterWide}
}

func (s Scope) String() string {
	switch s.Mode {
	case ScopeStrict:
		return fmt.Sprintf("strict:%s/%s", s.Namespace, s.Name)
	case ScopeNamespaceWide:
		return fmt.Sprintf("namespace-wide:%s", s.Namespace)
	default:
		return s.Mode.String()
	}
}

// AAD derives the additional authenticated data bound into the AEAD tag at
// seal time. The derivation is deterministic: identical scopes always
// produce identical bytes, and every field is length-prefixed (uvarint) so
// no namespace or name content can make two distinct scopes collide; a
// separator character scheme would be ambiguous for names that contain the
// separator.
//
// Layout: [1 byte mode][uvarint len][namespace][uvarint len][name], with the
// namespace omitted for cluster-wide scopes and the name omitted for
// namespace-wide scopes. The leading mode byte keeps the three encodings
// disjoint even when the remaining fields happen to match.
func (s Scope) AAD() []byte {
	aad := []byte{byte(s.Mode)}
	switch s.Mode {
	case ScopeStrict:
		aad = appendLengthPrefixed(aad, s.Namespace)
		aad = appendLengthPrefixed(aad, s.Name)
	case ScopeNamespaceWide:
		aad = appendLengthPrefixed(aad, s.Namespace)
	case ScopeClusterWide:
		// Mode marker only.
	}
	return aad
}

// candidates returns the AADs an unseal attempt may legitimately open,
// widest last. A value sealed namespace-wide or cluster-wide must unseal
// when the caller supplies the strict scope of a document it is allowed to
// appear in, so the chain widens from the supplied scope outwards:
//
//	strict:          strict AAD, namespace-wide AAD, cluster-wide AAD
//	namespace-wide:  namespace-wide AAD, cluster-wide AAD
//	cluster-wide:    cluster-wide AAD
//
// The converse never holds: a strictly sealed value presents only its own
// strict AAD here when the supplied scope is wider, so it cannot be replayed
// under another name.
func (s Scope) candidates() [][]byte {
	switch s.Mode {
	case ScopeStrict:
		return [][]byte{
			s.AAD(),
			NamespaceWideScope(s.Namespace).AAD(),
			ClusterWideScope().AAD(),
		}
	case ScopeNamespaceWide:
		return [][]byte{
			s.AAD(),
			ClusterWideScope().AAD(),
		}
	default:
		return [][]byte{ClusterWideScope().AAD()}
	}
}

func appendLengthPrefixed(dst []byte, field string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(field)))
	return append(dst, field...)
}
