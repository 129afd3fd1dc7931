package utils

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateURLSafeToken_ReturnsDistinctTokens(t *testing.T) {
	a, err := GenerateURLSafeToken()
	require.NoError(t, err)
	b, err := GenerateURLSafeToken()
	require.NoError(t, err)
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptReader_RoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("this is the staged document content to be encrypted at rest")

	encReader, err := EncryptReader(key, bytes.NewReader(plaintext))
	require.NoError(t, err)
	ciphertext, err := io.ReadAll(encReader)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decReader, err := DecryptReader(key, io.NopCloser(bytes.NewReader(ciphertext)))
	require.NoError(t, err)
	defer decReader.Close()

	got, err := io.ReadAll(decReader)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptReader_DifferentCallsUseDifferentNonces(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same plaintext")

	r1, err := EncryptReader(key, bytes.NewReader(plaintext))
	require.NoError(t, err)
	c1, err := io.ReadAll(r1)
	require.NoError(t, err)

	r2, err := EncryptReader(key, bytes.NewReader(plaintext))
	require.NoError(t, err)
	c2, err := io.ReadAll(r2)
	require.NoError(t, err)

	assert.NotEqual(t, c1, c2, "a fresh random nonce per call must make repeated encryptions of the same plaintext differ")
}

func TestDecryptReader_WrongKeyFailsAuthentication(t *testing.T) {
	key := testKey(t)
	wrongKey := testKey(t)
	plaintext := []byte("some content")

	encReader, err := EncryptReader(key, bytes.NewReader(plaintext))
	require.NoError(t, err)
	ciphertext, err := io.ReadAll(encReader)
	require.NoError(t, err)

	decReader, err := DecryptReader(wrongKey, io.NopCloser(bytes.NewReader(ciphertext)))
	require.NoError(t, err)
	defer decReader.Close()

	_, err = io.ReadAll(decReader)
	assert.Error(t, err)
}
