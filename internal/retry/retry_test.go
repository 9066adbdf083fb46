package retry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesaphoenix/tx/internal/retry"
)

func TestNext_RetriesBelowThreshold(t *testing.T) {
	for i := 0; i < retry.MaxRetries; i++ {
		assert.Equal(t, retry.RetryFromBacklog, retry.Next(i), "failedCount=%d should still retry", i)
	}
}

func TestNext_GivesUpAtAndAboveThreshold(t *testing.T) {
	assert.Equal(t, retry.GiveUpBlocked, retry.Next(retry.MaxRetries))
	assert.Equal(t, retry.GiveUpBlocked, retry.Next(retry.MaxRetries+5))
}
