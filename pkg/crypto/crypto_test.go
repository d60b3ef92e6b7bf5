package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("super-secret")
	require.NoError(t, err)

	enc, err := c.Encrypt("EAAG-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(enc, "enc:"))
	assert.NotContains(t, enc, "EAAG-token")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "EAAG-token", plain)
}

func TestCipher_PlainValues(t *testing.T) {
	c, err := NewCipher("k")
	require.NoError(t, err)

	plain, err := c.Decrypt("legacy-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", plain)

	empty, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	var none *Cipher
	out, err := none.Encrypt("x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestCipher_WrongKey(t *testing.T) {
	a, _ := NewCipher("a")
	b, _ := NewCipher("b")

	enc, err := a.Encrypt("token")
	require.NoError(t, err)

	_, err = b.Decrypt(enc)
	assert.Error(t, err)

	var none *Cipher
	_, err = none.Decrypt(enc)
	assert.Error(t, err)

	_, err = NewCipher("")
	assert.Error(t, err)
}
