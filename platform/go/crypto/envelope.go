// Package crypto provides envelope encryption for sensitive contact fields
// stored on signup requests. Each value is encrypted with a fresh data key;
// the data key is wrapped by a long-lived key-encryption key and persisted
// next to the ciphertext together with the KEK's identifier. Decryption
// unwraps the stored data key with the identified KEK, so the key that
// encrypted a value is always the key that decrypts it.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const dekSize = 32 // AES-256

// ErrUnknownKey indicates the envelope references a KEK the ring does not hold.
var ErrUnknownKey = errors.New("crypto: unknown key id")

// Envelope is one encrypted value plus everything needed to decrypt it later.
type Envelope struct {
	KeyID      string // identifies the KEK that wrapped the data key
	WrappedDEK []byte // data key, AES-GCM sealed by the KEK
	Ciphertext []byte // value, AES-GCM sealed by the data key (nonce-prefixed)
}

// KeyRing holds the key-encryption keys the process may decrypt with, and the
// primary key new envelopes are wrapped with. Old keys stay on the ring so
// previously encrypted values remain readable after a rotation.
type KeyRing struct {
	primary string
	keys    map[string][]byte
}

// NewKeyRing builds a ring with a single primary KEK. The key must be 32
// bytes. Key ids become a segment of the dot-separated encoded envelope and
// therefore must not contain a dot themselves.
func NewKeyRing(primaryID string, key []byte) (*KeyRing, error) {
	if err := validateKeyID(primaryID); err != nil {
		return nil, err
	}
	if len(key) != dekSize {
		return nil, fmt.Errorf("crypto: kek must be %d bytes, got %d", dekSize, len(key))
	}
	return &KeyRing{
		primary: primaryID,
		keys:    map[string][]byte{primaryID: append([]byte(nil), key...)},
	}, nil
}

// AddKey registers a secondary KEK for decrypting older envelopes.
func (r *KeyRing) AddKey(id string, key []byte) error {
	if err := validateKeyID(id); err != nil {
		return err
	}
	if len(key) != dekSize {
		return fmt.Errorf("crypto: kek must be %d bytes, got %d", dekSize, len(key))
	}
	r.keys[id] = append([]byte(nil), key...)
	return nil
}

func validateKeyID(id string) error {
	if id == "" {
		return fmt.Errorf("crypto: key id is required")
	}
	if strings.Contains(id, ".") {
		return fmt.Errorf("crypto: key id %q must not contain %q", id, ".")
	}
	return nil
}

// Encrypt seals plaintext under a fresh data key wrapped by the primary KEK.
func (r *KeyRing) Encrypt(plaintext []byte) (Envelope, error) {
	dek := make([]byte, dekSize)
	if _, err := rand.Read(dek); err != nil {
		return Envelope{}, fmt.Errorf("crypto: generate data key: %w", err)
	}

	ciphertext, err := seal(dek, plaintext)
	if err != nil {
		return Envelope{}, err
	}

	wrapped, err := seal(r.keys[r.primary], dek)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{KeyID: r.primary, WrappedDEK: wrapped, Ciphertext: ciphertext}, nil
}

// Decrypt unwraps the envelope's data key with the KEK named by KeyID and
// opens the ciphertext with it.
func (r *KeyRing) Decrypt(env Envelope) ([]byte, error) {
	kek, ok := r.keys[env.KeyID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, env.KeyID)
	}

	dek, err := open(kek, env.WrappedDEK)
	if err != nil {
		return nil, fmt.Errorf("crypto: unwrap data key: %w", err)
	}

	plaintext, err := open(dek, env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("crypto: open ciphertext: %w", err)
	}
	return plaintext, nil
}

// Encode packs an envelope into a single printable column value:
// v1.<keyID>.<wrappedDEK>.<ciphertext> with base64url segments.
func (env Envelope) Encode() string {
	return strings.Join([]string{
		"v1",
		env.KeyID,
		base64.RawURLEncoding.EncodeToString(env.WrappedDEK),
		base64.RawURLEncoding.EncodeToString(env.Ciphertext),
	}, ".")
}

// DecodeEnvelope parses a value produced by Encode.
func DecodeEnvelope(s string) (Envelope, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 || parts[0] != "v1" || parts[1] == "" {
		return Envelope{}, fmt.Errorf("crypto: malformed envelope")
	}

	wrapped, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Envelope{}, fmt.Errorf("crypto: decode wrapped key: %w", err)
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return Envelope{}, fmt.Errorf("crypto: decode ciphertext: %w", err)
	}

	return Envelope{KeyID: parts[1], WrappedDEK: wrapped, Ciphertext: ciphertext}, nil
}

func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func open(key, sealed []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("crypto: sealed value too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
