// Package crypto seals exported account credentials under a passphrase and
// generates the random usernames and passwords of new accounts.
//
// # Sealing
//
// [Seal] derives a 256-bit key from the passphrase with scrypt
// (N=32768, r=8, p=1) and a fresh 16-byte salt, then encrypts the plaintext
// with NaCl secretbox (XSalsa20-Poly1305) under a fresh 24-byte nonce.
// Salt, nonce and ciphertext are carried as URL-safe base64 without padding.
// [Open] reverses it; a wrong passphrase or any tampering fails
// authentication and returns [ErrDecryptionFailed].
//
// # Random strings
//
// [RandomString] draws every character independently and uniformly from the
// given alphabet using crypto/rand.
package crypto
