package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSessionID(t *testing.T) {
	id := GenerateSessionID("192.168.1.1Mozilla/5.0")
	assert.Len(t, id, 16)
	assert.True(t, ValidateSessionID(id))

	// Same input within the hour yields the same session.
	assert.Equal(t, id, GenerateSessionID("192.168.1.1Mozilla/5.0"))
	assert.NotEqual(t, id, GenerateSessionID("10.0.0.1curl/8.0"))
}

func TestMD5Hash(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", MD5Hash(""))
	assert.Equal(t, MD5Hash("capital of france"), MD5Hash("capital of france"))
	assert.NotEqual(t, MD5Hash("a"), MD5Hash("b"))
}

func TestGenerateRandomID(t *testing.T) {
	a := GenerateRandomID(8)
	b := GenerateRandomID(8)
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestValidateSessionID(t *testing.T) {
	assert.False(t, ValidateSessionID("short"))
	assert.False(t, ValidateSessionID("zzzzzzzzzzzzzzzz"))
	assert.True(t, ValidateSessionID("0123456789abcdef"))
}
