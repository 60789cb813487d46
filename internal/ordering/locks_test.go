package ordering

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocks_SerializeOverlappingKeys(t *testing.T) {
	locks := NewLocks()
	a, b := uuid.New(), uuid.New()
	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys := []uuid.UUID{a, b}
			if i%2 == 0 {
				keys = []uuid.UUID{b, a}
			}
			release, err := locks.Acquire(context.Background(), keys...)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Empty(t, locks.entries)
}

func TestLocks_DisjointKeysDoNotBlock(t *testing.T) {
	locks := NewLocks()
	release, err := locks.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	other, err := locks.Acquire(ctx, uuid.New())
	require.NoError(t, err)
	other()
}

func TestLocks_ContextCancelReleasesPartialHolds(t *testing.T) {
	locks := NewLocks()
	a, b := uuid.New(), uuid.New()
	keys := SortKeys([]uuid.UUID{a, b})

	release, err := locks.Acquire(context.Background(), keys[1])
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(ctx, a, b)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// keys[0] must be free again
	first, err := locks.Acquire(context.Background(), keys[0])
	require.NoError(t, err)
	first()
	release()
	release()
	assert.Empty(t, locks.entries)
}

func TestSortKeys(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := SortKeys([]uuid.UUID{b, a, b})
	assert.Len(t, got, 2)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, got)
	assert.Equal(t, got, SortKeys([]uuid.UUID{a, b}))
}
