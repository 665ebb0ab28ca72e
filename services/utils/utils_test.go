package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	first, err := HashPassword("pw123456", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("pw123456", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salts must differ")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(first), []byte("pw123456")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(second), []byte("pw123456")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(first), []byte("otra")))
}
