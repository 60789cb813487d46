package events

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Handler runs one side effect for a committed event. Handlers own their
// error handling: nothing they do can fail the mutation.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

type HandlerFunc func(ctx context.Context, ev Event)

func (f HandlerFunc) Handle(ctx context.Context, ev Event) { f(ctx, ev) }

// Dispatcher is an ordered asynchronous queue of committed events. Events of
// one board always land on the same shard and are handled in publish order.
type Dispatcher struct {
	shards         []chan Event
	handlers       []Handler
	handoffTimeout time.Duration
	logger         log.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(shards, buffer int, logger log.FieldLogger, handlers ...Handler) *Dispatcher {
	if shards < 1 {
		shards = 1
	}
	d := &Dispatcher{
		shards:         make([]chan Event, shards),
		handlers:       handlers,
		handoffTimeout: 2 * time.Second,
		logger:         logger,
	}
	for i := range d.shards {
		d.shards[i] = make(chan Event, buffer)
	}
	return d
}

// Start launches one worker per shard. Workers drain their shard until Close.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.shards {
		d.wg.Add(1)
		go d.worker(ctx, i, ch)
	}
	d.logger.Infof("event dispatcher started, shards: %d", len(d.shards))
}

func (d *Dispatcher) worker(ctx context.Context, id int, ch <-chan Event) {
	defer d.wg.Done()
	for ev := range ch {
		for _, h := range d.handlers {
			d.safeHandle(ctx, id, h, ev)
		}
	}
}

func (d *Dispatcher) safeHandle(ctx context.Context, shard int, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(log.Fields{
				"shard": shard,
				"kind":  ev.Kind,
				"board": ev.BoardID,
			}).Errorf("event handler panic: %v", r)
		}
	}()
	h.Handle(ctx, ev)
}

// Publish enqueues ev. It waits up to the handoff timeout for room in the
// shard and drops the event after that; a dropped event is logged only.
func (d *Dispatcher) Publish(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.WithField("kind", ev.Kind).Warn("dispatcher closed, event dropped")
		return
	}
	ch := d.shards[d.shardFor(ev)]
	select {
	case ch <- ev:
		return
	default:
	}
	timer := time.NewTimer(d.handoffTimeout)
	defer timer.Stop()
	select {
	case ch <- ev:
	case <-timer.C:
		d.logger.WithFields(log.Fields{"kind": ev.Kind, "board": ev.BoardID}).Error("event queue full, event dropped")
	}
}

func (d *Dispatcher) shardFor(ev Event) int {
	h := fnv.New32a()
	_, _ = h.Write(ev.BoardID[:])
	return int(h.Sum32() % uint32(len(d.shards)))
}

// Close stops accepting events and waits until queued ones are handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
