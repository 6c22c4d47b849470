package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/shell"
)

func Test_RetryWithExponentialBackoff_SucceedsFirstAttempt(t *testing.T) {
	// arrange
	calls := 0

	// act
	metrics, err := shell.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, metrics.Attempts)
	assert.Equal(t, "none", metrics.LastErrorType)
	assert.False(t, metrics.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetriesTransientFailures(t *testing.T) {
	// arrange
	calls := 0
	transient := errors.Join(circulation.ErrTransientStorageFailure, errors.New("connection reset"))

	// act
	metrics, err := shell.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	}, shell.WithBaseDelay(time.Millisecond))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, metrics.Attempts)
	assert.False(t, metrics.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_FailsFastOnBusinessErrors(t *testing.T) {
	// arrange
	calls := 0

	// act
	metrics, err := shell.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		return circulation.ErrAlreadySettled
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadySettled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "other", metrics.LastErrorType)
	assert.False(t, metrics.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_ExhaustsAttempts(t *testing.T) {
	// arrange
	calls := 0

	// act
	metrics, err := shell.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		return circulation.ErrTransientStorageFailure
	}, shell.WithMaxAttempts(3), shell.WithBaseDelay(time.Millisecond), shell.WithJitterFactor(0))

	// assert
	assert.ErrorIs(t, err, circulation.ErrTransientStorageFailure)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, metrics.Attempts)
	assert.True(t, metrics.RetriesExhausted)
	assert.Equal(t, "transient_storage_failure", metrics.LastErrorType)
}

func Test_RetryWithExponentialBackoff_StopsOnCanceledContext(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())

	// act
	_, err := shell.RetryWithExponentialBackoff(ctx, func(_ context.Context) error {
		cancel()
		return circulation.ErrTransientStorageFailure
	}, shell.WithBaseDelay(50*time.Millisecond))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_RetryWithExponentialBackoff_RejectsInvalidOptions(t *testing.T) {
	testCases := []struct {
		name        string
		option      shell.RetryOption
		expectedErr error
	}{
		{name: "zero max attempts", option: shell.WithMaxAttempts(0), expectedErr: shell.ErrInvalidMaxAttempts},
		{name: "negative base delay", option: shell.WithBaseDelay(-time.Second), expectedErr: shell.ErrNegativeBaseDelay},
		{name: "jitter above one", option: shell.WithJitterFactor(1.5), expectedErr: shell.ErrInvalidJitterFactor},
		{name: "nil metrics collector", option: shell.WithMetrics(nil, "SomeCommand"), expectedErr: shell.ErrNilMetricsCollector},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := shell.RetryWithExponentialBackoff(context.Background(), func(_ context.Context) error {
				return nil
			}, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}
