package crypto

import "errors"

var (
	// ErrDecryptionFailed is returned when a sealed payload cannot be opened.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrEmptyPassphrase is returned when sealing or opening with an empty passphrase.
	ErrEmptyPassphrase = errors.New("passphrase is required")

	// ErrInvalidPayload is returned when a sealed payload is malformed.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidSize is returned when a decoded field has an incorrect size.
	ErrInvalidSize = errors.New("invalid size")

	// ErrEmptyAlphabet is returned when a random string is requested from no characters.
	ErrEmptyAlphabet = errors.New("alphabet is empty")
)
