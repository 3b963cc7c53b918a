package events

import (
	"sync"
	"time"
)

// pending is an event accepted by Write and not yet handed to the writer.
type pending struct {
	kind string
	data []byte
	at   time.Time
}

// queue is an unbounded FIFO. Writers append, the producer loop takes
// everything queued so far in one swap.
type queue struct {
	mu    sync.Mutex
	items []pending
}

func (q *queue) push(p pending) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, p)
}

func (q *queue) take() []pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.items
	q.items = nil
	return batch
}
