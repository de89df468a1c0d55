package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/errs"
)

func TestWithBackoff_SucceedsAfterTransientErrors(t *testing.T) {
	attempts := 0
	err := withBackoff(context.Background(), 3, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("%w: rate limited", errs.TransientLLMError)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoff_ExhaustsRetries(t *testing.T) {
	attempts := 0
	err := withBackoff(context.Background(), 2, func() error {
		attempts++
		return fmt.Errorf("%w: still down", errs.TransientLLMError)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.TransientLLMError)
	assert.Equal(t, 3, attempts) // 1 initial + 2 retries
}

func TestWithBackoff_NonTransientFailsImmediately(t *testing.T) {
	attempts := 0
	sentinel := errors.New("bad request")
	err := withBackoff(context.Background(), 5, func() error {
		attempts++
		return sentinel
	})
	require.Error(t, err)
	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, attempts)
}

func TestWithBackoff_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	err := withBackoff(ctx, 3, func() error {
		attempts++
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 0, attempts)
}
