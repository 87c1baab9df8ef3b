package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeHMACSHA256_Deterministic(t *testing.T) {
	msg := BuildStringToSign("GET", "/api/v1/storage/objects/preview", 1700000000, HashBodySHA256([]byte("clients/1/a.pdf")))

	a := ComputeHMACSHA256("secret", msg)
	b := ComputeHMACSHA256("secret", msg)
	c := ComputeHMACSHA256("other", msg)

	assert.Len(t, a, 64)
	assert.True(t, SecureCompare(a, b))
	assert.False(t, SecureCompare(a, c))
}

func TestHashBodySHA256_Empty(t *testing.T) {
	assert.Equal(t, EmptyBodyHash, HashBodySHA256(nil))
}
