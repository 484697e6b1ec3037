package pipeline

import "sync"

// utteranceQueue is the bounded FIFO between the capture session and the
// controller loop. Push never blocks: when the backlog is full the oldest
// unprocessed utterance is discarded atomically with the enqueue, so a live
// microphone feed can never stall on a slow downstream stage.
type utteranceQueue struct {
	mu     sync.Mutex
	items  []Utterance
	max    int
	closed bool
	wake   chan struct{}
}

func newUtteranceQueue(max int) *utteranceQueue {
	if max <= 0 {
		max = 1
	}
	return &utteranceQueue{
		max:  max,
		wake: make(chan struct{}, 1),
	}
}

// push enqueues u and returns the utterance dropped to make room, if any.
// Returns ok=false when the queue is closed.
func (q *utteranceQueue) push(u Utterance) (dropped *Utterance, ok bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, false
	}

	q.items = append(q.items, u)
	if len(q.items) > q.max {
		d := q.items[0]
		q.items = q.items[1:]
		dropped = &d
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return dropped, true
}

// pop removes and returns the oldest queued utterance. ok=false means the
// queue is empty; closed reports whether intake has been shut.
func (q *utteranceQueue) pop() (u Utterance, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return Utterance{}, false, true
	}
	if len(q.items) == 0 {
		return Utterance{}, false, false
	}
	u = q.items[0]
	q.items = q.items[1:]
	return u, true, false
}

func (q *utteranceQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close stops intake. Utterances still queued are abandoned: once shutdown
// begins no subsequent utterance may start processing.
func (q *utteranceQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *utteranceQueue) wakeCh() <-chan struct{} {
	return q.wake
}
