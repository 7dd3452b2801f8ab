package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	ring, err := NewKeyRing("kek-2026-01", testKey(0x11))
	require.NoError(t, err)

	env, err := ring.Encrypt([]byte("+1-555-0100"))
	require.NoError(t, err)
	require.Equal(t, "kek-2026-01", env.KeyID)

	plaintext, err := ring.Decrypt(env)
	require.NoError(t, err)
	require.Equal(t, "+1-555-0100", string(plaintext))
}

func TestDecryptUsesStoredDataKeyNotAFreshOne(t *testing.T) {
	t.Parallel()

	ring, err := NewKeyRing("kek-2026-01", testKey(0x11))
	require.NoError(t, err)

	// Two encryptions of the same value produce different data keys and
	// ciphertexts, and each decrypts only through its own stored envelope.
	a, err := ring.Encrypt([]byte("secret"))
	require.NoError(t, err)
	b, err := ring.Encrypt([]byte("secret"))
	require.NoError(t, err)
	require.NotEqual(t, a.WrappedDEK, b.WrappedDEK)
	require.NotEqual(t, a.Ciphertext, b.Ciphertext)

	// Swapping the wrapped key between envelopes must fail: the data key that
	// encrypted a ciphertext is the only one that can open it.
	crossed := Envelope{KeyID: a.KeyID, WrappedDEK: b.WrappedDEK, Ciphertext: a.Ciphertext}
	_, err = ring.Decrypt(crossed)
	require.Error(t, err)
}

func TestDecryptAfterRotation(t *testing.T) {
	t.Parallel()

	oldRing, err := NewKeyRing("kek-2025-07", testKey(0x22))
	require.NoError(t, err)
	env, err := oldRing.Encrypt([]byte("hello"))
	require.NoError(t, err)

	newRing, err := NewKeyRing("kek-2026-01", testKey(0x33))
	require.NoError(t, err)

	_, err = newRing.Decrypt(env)
	require.ErrorIs(t, err, ErrUnknownKey)

	require.NoError(t, newRing.AddKey("kek-2025-07", testKey(0x22)))
	plaintext, err := newRing.Decrypt(env)
	require.NoError(t, err)
	require.Equal(t, "hello", string(plaintext))
}

func TestDecryptWithWrongKEKFails(t *testing.T) {
	t.Parallel()

	ring, err := NewKeyRing("kek-2026-01", testKey(0x44))
	require.NoError(t, err)
	env, err := ring.Encrypt([]byte("hello"))
	require.NoError(t, err)

	impostor, err := NewKeyRing("kek-2026-01", testKey(0x55))
	require.NoError(t, err)
	_, err = impostor.Decrypt(env)
	require.Error(t, err)
}

func TestEnvelopeEncodeDecode(t *testing.T) {
	t.Parallel()

	ring, err := NewKeyRing("kek-2026-01", testKey(0x66))
	require.NoError(t, err)
	env, err := ring.Encrypt([]byte("+44 20 7946 0958"))
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(env.Encode())
	require.NoError(t, err)
	require.Equal(t, env, decoded)

	plaintext, err := ring.Decrypt(decoded)
	require.NoError(t, err)
	require.Equal(t, "+44 20 7946 0958", string(plaintext))
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "v1", "v2.k.a.b", "v1..a.b", "v1.k.!!.b", "v1.k.a.!!"} {
		_, err := DecodeEnvelope(s)
		require.Error(t, err, "input %q", s)
	}
}

func TestKeyRingRejectsDottedKeyIDs(t *testing.T) {
	t.Parallel()

	// A dot inside a key id would split the encoded envelope into more than
	// four segments and make it undecodable.
	_, err := NewKeyRing("kek.2026-01", testKey(0x01))
	require.Error(t, err)

	ring, err := NewKeyRing("kek-2026-01", testKey(0x01))
	require.NoError(t, err)
	require.Error(t, ring.AddKey("kek.2025-07", testKey(0x02)))
}

func TestNewKeyRingValidatesKeySize(t *testing.T) {
	t.Parallel()

	_, err := NewKeyRing("kek", []byte("short"))
	require.Error(t, err)

	ring, err := NewKeyRing("kek", testKey(0x01))
	require.NoError(t, err)
	require.Error(t, ring.AddKey("other", []byte("short")))
}
