// Package sealedsecrets implements the cryptographic core of a sealed-value
// system: a secret field is encrypted outside the runtime environment so it
// can live in version control or CI logs, and only the holder of the private
// sealing keys can recover it.
//
// Sealing uses hybrid encryption. Asymmetric encryption is slow and size
// limited, so each Seal generates a fresh random symmetric session key,
// encrypts the plaintext with an AEAD, and wraps the session key with the
// recipient's RSA public key (RSA-OAEP-SHA256). The sealed value is bound to
// a logical scope (an exact namespace/name, a whole namespace, or the whole
// cluster) by feeding the scope's encoding into the AEAD as additional
// authenticated data, so a sealed value cannot be replayed under a different
// identity.
//
// The KeyStore owns the private side: rotation creates new key pairs while
// retaining old ones, so ciphertexts sealed before any number of rotations
// keep unsealing; pruning is the explicit, destructive opposite.
//
// Parsing the surrounding manifests, watching a cluster for new documents,
// materializing decrypted results and distributing certificates are all
// external collaborators' concerns; this package only ever consumes and
// returns individual sealed values and plaintexts.
package sealedsecrets
