package cipher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c, err := New([]byte("/home/alice" + "Intel(R) Xeon(R) CPU E5-2670 0 @ 2.60GHz"))
	require.NoError(t, err)

	for _, s := range []string{"", "hello", "api_key-123", "a string with spaces and \"quotes\""} {
		enc, err := c.Encrypt(s)
		require.NoError(t, err)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		require.Equal(t, s, dec)
	}
}

// S1: with the reference seed, encrypt("hello") is a 24-character base64
// string and decrypts back to "hello".
func TestScenarioS1(t *testing.T) {
	c, err := New([]byte("/home/alice" + "Intel(R) Xeon(R) CPU E5-2670 0 @ 2.60GHz"))
	require.NoError(t, err)

	enc, err := c.Encrypt("hello")
	require.NoError(t, err)
	require.Len(t, enc, 24)

	dec, err := c.Decrypt(enc)
	require.NoError(t, err)
	require.Equal(t, "hello", dec)
}

func TestDistinctPlaintextsDiffer(t *testing.T) {
	c, err := New([]byte("seed-for-distinctness-test"))
	require.NoError(t, err)

	a, err := c.Encrypt("value-one")
	require.NoError(t, err)
	b, err := c.Encrypt("value-two")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestDeterministic(t *testing.T) {
	c, err := New([]byte("fixed-seed"))
	require.NoError(t, err)

	a, err := c.Encrypt("repeat me")
	require.NoError(t, err)
	b, err := c.Encrypt("repeat me")
	require.NoError(t, err)

	// CBC with a fixed IV is deterministic for a fixed plaintext: this is
	// intentional (the key/IV pair is a process-lifetime constant), not
	// a general AES-CBC property.
	require.Equal(t, a, b)
}

func TestDecryptCorruptInput(t *testing.T) {
	c, err := New([]byte("fixed-seed"))
	require.NoError(t, err)

	_, err = c.Decrypt("not-valid-base64!!!")
	require.Error(t, err)

	_, err = c.Decrypt("AAAA")
	require.Error(t, err)
}
