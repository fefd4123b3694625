package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("cron-secret")
	require.NoError(t, err)

	assert.True(t, CheckSecretHash("cron-secret", hash))
	assert.False(t, CheckSecretHash("wrong", hash))
	assert.False(t, CheckSecretHash("cron-secret", "not-a-hash"))
}

func TestCheckSecret(t *testing.T) {
	assert.True(t, CheckSecret("cron-secret", "cron-secret"))
	assert.False(t, CheckSecret("wrong", "cron-secret"))
	assert.False(t, CheckSecret("", ""))
	assert.False(t, CheckSecret("anything", ""))
}
