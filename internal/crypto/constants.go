package crypto

const (
	// ScryptN is the scrypt CPU/memory cost parameter.
	ScryptN = 1 << 15
	// ScryptR is the scrypt block size parameter.
	ScryptR = 8
	// ScryptP is the scrypt parallelization parameter.
	ScryptP = 1

	// KeySize is the size of the derived secretbox key in bytes.
	KeySize = 32
	// SaltSize is the size of the scrypt salt in bytes.
	SaltSize = 16
	// NonceSize is the size of a secretbox nonce in bytes.
	NonceSize = 24
)
