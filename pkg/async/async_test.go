package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/async"
)

func TestGo(t *testing.T) {
	t.Parallel()

	t.Run("returns the function result", func(t *testing.T) {
		t.Parallel()

		f := async.Go(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})

		got, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.True(t, f.IsComplete())
	})

	t.Run("propagates the function error", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		f := async.Go(context.Background(), "x", func(context.Context, string) (string, error) {
			return "", errBoom
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("short-circuits on an already cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called bool
		f := async.Go(ctx, 0, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("is complete only after the function returns", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		f := async.Go(context.Background(), 0, func(context.Context, int) (int, error) {
			<-release
			return 1, nil
		})

		assert.False(t, f.IsComplete())
		close(release)

		_, err := f.Await()
		require.NoError(t, err)
		assert.True(t, f.IsComplete())
	})

	t.Run("await is safe from multiple goroutines", func(t *testing.T) {
		t.Parallel()

		f := async.Go(context.Background(), 7, func(_ context.Context, n int) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return n, nil
		})

		results := make(chan int, 3)
		for i := 0; i < 3; i++ {
			go func() {
				v, _ := f.Await()
				results <- v
			}()
		}
		for i := 0; i < 3; i++ {
			assert.Equal(t, 7, <-results)
		}
	})
}
