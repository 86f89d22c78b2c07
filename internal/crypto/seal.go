package crypto

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// Sealed is a passphrase-encrypted payload. All fields are URL-safe base64
// without padding.
type Sealed struct {
	Salt       string `json:"salt" yaml:"salt"`
	Nonce      string `json:"nonce" yaml:"nonce"`
	Ciphertext string `json:"ciphertext" yaml:"ciphertext"`
}

// Seal encrypts plaintext under a key derived from passphrase.
func Seal(plaintext, passphrase []byte) (*Sealed, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}

	salt, err := randomBytes(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonceBytes, err := randomBytes(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	var nonce [NonceSize]byte
	copy(nonce[:], nonceBytes)

	box := secretbox.Seal(nil, plaintext, &nonce, key)
	return &Sealed{
		Salt:       toBase64URL(salt),
		Nonce:      toBase64URL(nonceBytes),
		Ciphertext: toBase64URL(box),
	}, nil
}

// Open decrypts a payload produced by Seal.
func Open(s *Sealed, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if s == nil {
		return nil, ErrInvalidPayload
	}

	salt, err := fromBase64URL(s.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidPayload, err)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt is %d bytes", ErrInvalidSize, len(salt))
	}
	nonceBytes, err := fromBase64URL(s.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrInvalidPayload, err)
	}
	if len(nonceBytes) != NonceSize {
		return nil, fmt.Errorf("%w: nonce is %d bytes", ErrInvalidSize, len(nonceBytes))
	}
	box, err := fromBase64URL(s.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrInvalidPayload, err)
	}
	if len(box) < secretbox.Overhead {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes", ErrInvalidSize, len(box))
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	var nonce [NonceSize]byte
	copy(nonce[:], nonceBytes)

	plaintext, ok := secretbox.Open(nil, box, &nonce, key)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func deriveKey(passphrase, salt []byte) (*[KeySize]byte, error) {
	k, err := scrypt.Key(passphrase, salt, ScryptN, ScryptR, ScryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [KeySize]byte
	copy(key[:], k)
	return &key, nil
}

func toBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func fromBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
