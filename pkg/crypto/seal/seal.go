// Package seal encrypts small secrets (the session token) for storage at
// rest.
//
// A sealed value is a self-describing string:
//
//	sealed:v1:<algorithm>:<base64url(salt | nonce | ciphertext)>
//
// The key is derived from a passphrase with Argon2id and a random per-value
// salt. AES-GCM is used where the CPU has AES instructions, ChaCha20-Poly1305
// otherwise; the algorithm is recorded so values open on any machine.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm identifies the AEAD used for a sealed value.
type Algorithm string

const (
	AESGCM   Algorithm = "aes-gcm"
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// Prefix marks sealed values.
	Prefix = "sealed:v1:"

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	saltLength = 16

	argon2Time    = 1
	argon2Memory  = 19 * 1024
	argon2Threads = 2
	argon2KeyLen  = 32
)

// Errors returned by the package.
var (
	ErrPassphraseTooWeak = errors.New("seal: passphrase too weak (minimum 8 characters)")
	ErrNotSealed         = errors.New("seal: value is not sealed")
	ErrOpenFailed        = errors.New("seal: open failed - wrong passphrase or corrupted data")
)

// Sealer seals and opens values with a passphrase.
type Sealer struct {
	passphrase []byte
	algorithm  Algorithm
}

// Option configures a Sealer.
type Option func(*Sealer)

// WithAlgorithm forces the AEAD used for sealing.
func WithAlgorithm(a Algorithm) Option {
	return func(s *Sealer) {
		s.algorithm = a
	}
}

// New creates a Sealer for passphrase.
func New(passphrase string, opts ...Option) (*Sealer, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	s := &Sealer{
		passphrase: []byte(passphrase),
		algorithm:  preferredAlgorithm(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := newAEAD(s.algorithm, make([]byte, argon2KeyLen)); err != nil {
		return nil, err
	}
	return s, nil
}

// Algorithm returns the AEAD used for new values.
func (s *Sealer) Algorithm() Algorithm {
	return s.algorithm
}

// Seal encrypts plaintext bound to additionalData.
func (s *Sealer) Seal(plaintext, additionalData []byte) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("seal: read salt: %w", err)
	}

	aead, err := newAEAD(s.algorithm, s.deriveKey(salt))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("seal: read nonce: %w", err)
	}

	out := make([]byte, 0, saltLength+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, additionalData)

	return Prefix + string(s.algorithm) + ":" + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string, additionalData []byte) ([]byte, error) {
	if !IsSealed(sealed) {
		return nil, ErrNotSealed
	}
	algo, payload, ok := strings.Cut(strings.TrimPrefix(sealed, Prefix), ":")
	if !ok {
		return nil, ErrOpenFailed
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(raw) < saltLength {
		return nil, ErrOpenFailed
	}

	salt := raw[:saltLength]
	aead, err := newAEAD(Algorithm(algo), s.deriveKey(salt))
	if err != nil {
		return nil, err
	}

	rest := raw[saltLength:]
	if len(rest) < aead.NonceSize() {
		return nil, ErrOpenFailed
	}
	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}

// IsSealed reports whether v carries the sealed-value prefix.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, Prefix)
}

func (s *Sealer) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

func newAEAD(a Algorithm, key []byte) (cipher.AEAD, error) {
	switch a {
	case AESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("seal: aes: %w", err)
		}
		return cipher.NewGCM(block)
	case ChaCha20:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("seal: unsupported algorithm %q", a)
	}
}

// preferredAlgorithm picks AES-GCM on architectures where Go uses hardware
// AES, ChaCha20-Poly1305 elsewhere.
func preferredAlgorithm() Algorithm {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return AESGCM
	default:
		return ChaCha20
	}
}
