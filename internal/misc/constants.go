package misc

const (
	// MaxPlaintextSize is the default ceiling for a single sealed value.
	// Sealing is a per-field operation; anything larger belongs in blob
	// storage, not a sealed manifest.
	MaxPlaintextSize = 10 * 1024 * 1024 // 10MB

	// DefaultKeySize is the RSA modulus size (bits) for new sealing key pairs.
	DefaultKeySize = 4096

	// MinKeySize is the smallest RSA modulus accepted anywhere in this
	// module. 2048 is a sane floor so a weak key can't accidentally be used.
	MinKeySize = 2048

	// SessionKeySize is the size of the per-seal symmetric key in bytes.
	SessionKeySize = 32

	// ArgonTime Key derivation parameters for passphrase-protected exports
	ArgonTime    uint32 = 4
	ArgonMemory  uint32 = 128 * 1024
	ArgonThreads uint8  = 4
	ArgonKeyLen  uint32 = 32
	SaltSize            = 32

	// Pbkdf2Iterations is only used to decrypt version-1 export blobs.
	Pbkdf2Iterations = 100000

	FilePermissions = 0600 // user read + write
	DirPermissions  = 0700
)
