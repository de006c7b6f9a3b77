package reporter

import "sync"

// message pairs a report payload with the endpoint it is delivered to.
// Ownership transfers to the queue on push; the sender consumes each message
// exactly once.
type message struct {
	endpoint string
	report   Report
}

// messageQueue is an unbounded FIFO decoupling event-thread producers from
// the single sender goroutine. Closing the queue is the shutdown sentinel:
// producers are rejected afterwards, while the consumer drains whatever is
// left before observing closure.
type messageQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []message
	closed bool
}

func newMessageQueue() *messageQueue {
	q := &messageQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a message to the queue. Returns false once the queue has been
// closed; the message is not accepted in that case.
func (q *messageQueue) push(m message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, m)
	q.cond.Signal()
	return true
}

// pop blocks until a message is available or the queue is closed and fully
// drained. The second return value is false only on drained closure.
func (q *messageQueue) pop() (message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return message{}, false
	}

	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

// close marks the queue closed and wakes any blocked consumer. Idempotent.
func (q *messageQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// len returns the number of undelivered messages.
func (q *messageQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
