package ordering

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Locks is a set of keyed mutual-exclusion regions. Keys are list ids for
// task ordering and board ids for list order and membership. Several keys are
// always taken in ascending order so overlapping callers cannot deadlock.
type Locks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocks() *Locks {
	return &Locks{entries: make(map[uuid.UUID]*lockEntry)}
}

// Acquire blocks until every key is held or ctx is done. The returned func
// releases all of them.
func (l *Locks) Acquire(ctx context.Context, keys ...uuid.UUID) (func(), error) {
	keys = SortKeys(keys)

	l.mu.Lock()
	entries := make([]*lockEntry, len(keys))
	for i, k := range keys {
		e, ok := l.entries[k]
		if !ok {
			e = &lockEntry{sem: make(chan struct{}, 1)}
			l.entries[k] = e
		}
		e.refs++
		entries[i] = e
	}
	l.mu.Unlock()

	held := 0
	for _, e := range entries {
		select {
		case e.sem <- struct{}{}:
			held++
		case <-ctx.Done():
			l.release(keys, entries, held)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(keys, entries, held) })
	}, nil
}

func (l *Locks) release(keys []uuid.UUID, entries []*lockEntry, held int) {
	for i := held - 1; i >= 0; i-- {
		<-entries[i].sem
	}
	l.mu.Lock()
	for i, k := range keys {
		entries[i].refs--
		if entries[i].refs == 0 {
			delete(l.entries, k)
		}
	}
	l.mu.Unlock()
}

// SortKeys returns the distinct keys in ascending byte order.
func SortKeys(keys []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(keys))
	seen := make(map[uuid.UUID]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
