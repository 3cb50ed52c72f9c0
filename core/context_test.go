package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that the run ID can be read concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := withRunID(context.Background(), 12345)

	const numGoroutines = 50
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Go(func() {
			assert.Equal(t, int64(12345), runIDFrom(ctx), "Goroutine %d: runIDFrom should be 12345", i)
		})
	}
	wg.Wait()
}

// TestContextIsolation tests that derived contexts do not leak run IDs into each other.
func TestContextIsolation(t *testing.T) {
	base := context.Background()
	ctx1 := withRunID(base, 1)
	ctx2 := withRunID(base, 2)

	assert.Equal(t, int64(1), runIDFrom(ctx1))
	assert.Equal(t, int64(2), runIDFrom(ctx2))
	assert.Equal(t, int64(0), runIDFrom(base))
}

func TestRunIDFromWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), runIDKey, "not-an-id")
	assert.Equal(t, int64(0), runIDFrom(ctx))
}
