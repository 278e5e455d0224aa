// Package security encrypts broker credentials before they hit the
// database. AES-256-GCM with a random nonce per message; ciphertexts
// are base64 strings so they fit plain text columns.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

func gcmFromConfig() (cipher.AEAD, error) {
	key, err := base64.StdEncoding.DecodeString(GetConfig().CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("credentials key is not valid base64: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("credentials key rejected: %w", err)
	}
	return cipher.NewGCM(block)
}

// EncryptString seals the plaintext under the configured key. The
// nonce is prepended to the ciphertext before encoding.
func EncryptString(plaintext string) (string, error) {
	gcm, err := gcmFromConfig()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a ciphertext produced by EncryptString.
func DecryptString(ciphertext string) (string, error) {
	gcm, err := gcmFromConfig()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}
