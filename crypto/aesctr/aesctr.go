// Package aesctr implements the AES-256-CTR symmetric layer notes are
// encrypted under. No third-party stream-cipher library in this module's
// dependency stack (or the broader Go ecosystem) improves on the standard
// library's crypto/aes + crypto/cipher for plain AES-CTR — every symmetric
// primitive in the retrieved corpus (blake2s, chacha20poly1305 in
// kysee-zkp) is itself built on the same cipher.Stream interface used here,
// so this is the one package in the module grounded on the standard
// library rather than a pack dependency.
package aesctr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const (
	keySize = 32
	ivSize  = 16
)

// Ciphertext is an encrypted byte stream: a random IV plus the CTR output.
type Ciphertext struct {
	IV   [ivSize]byte
	Data []byte
}

func normalizeKey(key []byte) []byte {
	k := make([]byte, keySize)
	copy(k, key)
	return k
}

// Encrypt encrypts plaintext under key using AES-256-CTR with a fresh
// random IV. key is truncated/padded to 32 bytes per spec.md §4.A.
func Encrypt(plaintext []byte, key []byte) (Ciphertext, error) {
	block, err := aes.NewCipher(normalizeKey(key))
	if err != nil {
		return Ciphertext{}, fmt.Errorf("aesctr: new cipher: %w", err)
	}

	var ct Ciphertext
	if _, err := rand.Read(ct.IV[:]); err != nil {
		return Ciphertext{}, fmt.Errorf("aesctr: random iv: %w", err)
	}

	stream := cipher.NewCTR(block, ct.IV[:])
	ct.Data = make([]byte, len(plaintext))
	stream.XORKeyStream(ct.Data, plaintext)
	return ct, nil
}

// Decrypt inverts Encrypt.
func Decrypt(ct Ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(normalizeKey(key))
	if err != nil {
		return nil, fmt.Errorf("aesctr: new cipher: %w", err)
	}
	stream := cipher.NewCTR(block, ct.IV[:])
	out := make([]byte, len(ct.Data))
	stream.XORKeyStream(out, ct.Data)
	return out, nil
}

// Marshal serializes ct as iv || data.
func (ct Ciphertext) Marshal() []byte {
	out := make([]byte, ivSize+len(ct.Data))
	copy(out, ct.IV[:])
	copy(out[ivSize:], ct.Data)
	return out
}

// Unmarshal parses the iv || data layout produced by Marshal.
func Unmarshal(buf []byte) (Ciphertext, error) {
	if len(buf) < ivSize {
		return Ciphertext{}, fmt.Errorf("aesctr: ciphertext too short")
	}
	var ct Ciphertext
	copy(ct.IV[:], buf[:ivSize])
	ct.Data = append([]byte{}, buf[ivSize:]...)
	return ct, nil
}
