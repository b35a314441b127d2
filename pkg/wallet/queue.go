package wallet

import (
	"encoding/json"
	"sync"
)

// ExchangeFn runs one signing-window exchange and reports its outcome as
// a raw response payload. It must not panic; failures are returned as
// error results.
type ExchangeFn func() Result[json.RawMessage]

// queuedExchange pairs a queued exchange with its single-resolution
// future. The queue owns it exclusively from enqueue to resolution.
type queuedExchange struct {
	run  ExchangeFn
	done chan Result[json.RawMessage]
}

// Queue serializes signing-window exchanges so at most one window is
// open at a time. Explicitly, login exchanges go through the same queue
// as transaction signing. Requests drain strictly in arrival order and a
// failed exchange never stalls the ones behind it.
type Queue struct {
	mu         sync.Mutex
	pending    []*queuedExchange
	processing bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an exchange and returns its future immediately. The
// future receives exactly one result and is then closed.
func (q *Queue) Enqueue(fn ExchangeFn) <-chan Result[json.RawMessage] {
	req := &queuedExchange{
		run:  fn,
		done: make(chan Result[json.RawMessage], 1),
	}

	q.mu.Lock()
	q.pending = append(q.pending, req)
	// The processing flag must flip before the drain goroutine starts so
	// a second Enqueue racing in cannot spawn a second drain loop.
	start := !q.processing
	if start {
		q.processing = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}

	return req.done
}

// Len reports how many exchanges are pending, including the in-flight
// one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// drain processes the head of the queue until it is empty. The head is
// removed only after its future resolves, so the in-flight exchange
// stays visible as pending.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		head := q.pending[0]
		q.mu.Unlock()

		result := head.run()
		head.done <- result
		close(head.done)

		q.mu.Lock()
		q.pending = q.pending[1:]
		q.mu.Unlock()
	}
}
