package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDecode(t *testing.T) {
	raw, err := Decode(Encode("123456"))
	require.NoError(t, err)
	assert.Equal(t, "123456", raw)

	_, err = Decode("not base64!")
	assert.True(t, errors.Is(err, ErrInvalidEncoding))
}

func TestNewEncoder(t *testing.T) {
	enc, err := NewEncoder("", 0)
	require.NoError(t, err)
	assert.IsType(t, PlainEncoder{}, enc)

	enc, err = NewEncoder(KindBcrypt, 0)
	require.NoError(t, err)
	assert.Equal(t, BcryptEncoder{Cost: bcrypt.DefaultCost}, enc)

	_, err = NewEncoder(KindBcrypt, 99)
	assert.Error(t, err)

	_, err = NewEncoder("argon2", 0)
	assert.Error(t, err)
}

func TestPlainEncoder(t *testing.T) {
	enc := PlainEncoder{}
	stored, err := enc.Encode("secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", stored)
	assert.True(t, enc.Matches("secret", stored))
	assert.False(t, enc.Matches("Secret", stored))
}

func TestBcryptEncoder(t *testing.T) {
	enc := BcryptEncoder{Cost: bcrypt.MinCost}
	stored, err := enc.Encode("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored)
	assert.True(t, enc.Matches("secret", stored))
	assert.False(t, enc.Matches("other", stored))
}
