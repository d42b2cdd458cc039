package queue

import "sync"

// LinkSink is the add-only view of a WorkQueue handed to render engines so
// rendered pages can register newly discovered URLs without observing or
// mutating dequeue/done state.
type LinkSink interface {
	Add(url string)
}

type urlState uint8

const (
	// statePending covers both queued URLs and the URL currently held by the
	// caller between Next and MarkAsDone, so Add stays a no-op for it.
	statePending urlState = iota + 1
	stateDone
)

// WorkQueue is a deduplicated, insertion-ordered worklist of URLs.
//
// Every URL is in exactly one of three states: unknown, pending or done.
// A done URL never re-enters pending, which is what breaks link cycles
// during discovery. Add may be called while the queue is being drained;
// URLs added before Next reports drained are returned by a later Next.
type WorkQueue struct {
	mu      sync.Mutex
	pending []string
	head    int
	states  map[string]urlState
	done    int
}

// New creates an empty WorkQueue.
func New() *WorkQueue {
	return &WorkQueue{states: make(map[string]urlState)}
}

// Add appends url to the tail of pending unless it is already pending or done.
func (q *WorkQueue) Add(url string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, known := q.states[url]; known {
		return
	}
	q.states[url] = statePending
	q.pending = append(q.pending, url)
}

// Next removes and returns the head of pending. ok is false once the queue
// is drained. The returned URL is not marked done.
func (q *WorkQueue) Next() (url string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.pending) {
		return "", false
	}
	url = q.pending[q.head]
	q.pending[q.head] = ""
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 64 && q.head*2 >= len(q.pending) {
		q.pending = append([]string(nil), q.pending[q.head:]...)
		q.head = 0
	}
	return url, true
}

// MarkAsDone moves url into the done set. It is idempotent.
//
// A URL taken by Next is neither pending nor done until it is marked, so
// callers mark each URL exactly once before dequeuing the next one to keep
// progress counts exact.
func (q *WorkQueue) MarkAsDone(url string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.states[url] == stateDone {
		return
	}
	if q.states[url] == statePending && q.isQueued(url) {
		q.removePending(url)
	}
	q.states[url] = stateDone
	q.done++
}

// PendingCount returns the number of URLs waiting in the queue.
func (q *WorkQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) - q.head
}

// DoneCount returns the number of URLs marked done.
func (q *WorkQueue) DoneCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// TotalCount returns pending plus done.
func (q *WorkQueue) TotalCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) - q.head + q.done
}

// IsDone reports whether url has been marked done.
func (q *WorkQueue) IsDone(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.states[url] == stateDone
}

// Sink returns the add-only capability over q.
func (q *WorkQueue) Sink() LinkSink {
	return sink{q: q}
}

// isQueued reports whether url is still waiting behind head. Caller holds mu.
func (q *WorkQueue) isQueued(url string) bool {
	for _, u := range q.pending[q.head:] {
		if u == url {
			return true
		}
	}
	return false
}

// removePending drops url from the pending tail. Caller holds mu.
func (q *WorkQueue) removePending(url string) {
	rest := q.pending[q.head:]
	for i, u := range rest {
		if u == url {
			copy(rest[i:], rest[i+1:])
			q.pending = q.pending[:len(q.pending)-1]
			return
		}
	}
}

// sink hides every WorkQueue method except Add.
type sink struct{ q *WorkQueue }

func (s sink) Add(url string) { s.q.Add(url) }

// SinkFunc adapts a function to LinkSink.
type SinkFunc func(url string)

// Add calls f(url).
func (f SinkFunc) Add(url string) { f(url) }
