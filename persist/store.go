package persist

import (
	"time"
)

// VersionedData represents data with its version information
type VersionedData struct {
	Data      []byte
	Version   string // ETag, version number, or hash
	Timestamp time.Time
}

// Store defines the interface for persisting the encrypted keyset blob
// produced by the sealing core's Export. Everything passed through this
// interface is already ciphertext; a store is a dumb, versioned byte sink
// and never sees key material or plaintext.
//
// Versions implement optimistic concurrency: Save with the version returned
// by the last Load (or "" for the first write) and the store rejects the
// write if someone else got there first.
type Store interface {
	// SaveKeyset persists the encrypted keyset blob. Returns the new
	// version, or an error if expectedVersion no longer matches.
	SaveKeyset(data []byte, expectedVersion string) (newVersion string, err error)

	// LoadKeyset retrieves the encrypted keyset blob.
	LoadKeyset() (*VersionedData, error)

	// KeysetExists checks whether a keyset blob is present.
	KeysetExists() (bool, error)

	// GetType returns the store type identifier ("filesystem", "s3").
	GetType() string

	// Ping verifies the store is reachable.
	Ping() error

	// Close releases any resources held by the store.
	Close() error
}
