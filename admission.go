package http2

// AdmissionQueue is the request admission gate: a FIFO of pending
// submissions plus a credit counter that only settings events and
// stream-close events replenish. It has no timers and no concurrency policy
// of its own — concurrency is entirely a function of how many credits it has
// been handed.
//
// It is owned exclusively by the connection actor: nothing else ever calls
// its methods concurrently, so it carries no lock of its own.
type AdmissionQueue struct {
	pending []*Ctx
	credits int
}

func newAdmissionQueue() *AdmissionQueue {
	return &AdmissionQueue{}
}

// Submit appends a request to the back of the queue. Non-blocking: it never
// itself opens a stream, it only makes the request eligible for a future
// Grant to release.
func (q *AdmissionQueue) Submit(ctx *Ctx) {
	q.pending = append(q.pending, ctx)
}

// Cancel removes a still-pending request without consuming a credit. It
// reports whether ctx was found pending; if not, the caller should fall
// back to canceling an in-flight stream instead.
func (q *AdmissionQueue) Cancel(ctx *Ctx) bool {
	for i, p := range q.pending {
		if p == ctx {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Grant adds n credits and releases as many pending requests as the queue
// now has credit and backlog for, in FIFO order. A negative n is treated as
// zero.
func (q *AdmissionQueue) Grant(n int) []*Ctx {
	if n < 0 {
		n = 0
	}
	q.credits += n

	if q.credits <= 0 || len(q.pending) == 0 {
		return nil
	}

	release := q.credits
	if release > len(q.pending) {
		release = len(q.pending)
	}

	released := q.pending[:release]
	q.pending = q.pending[release:]
	q.credits -= release

	return released
}

// TryConsume spends one credit immediately for a new request. It refuses
// (returns false) while any request is still pending, so a new request never
// overtakes the backlog, and otherwise reports whether a credit was
// available.
func (q *AdmissionQueue) TryConsume() bool {
	if len(q.pending) > 0 || q.credits <= 0 {
		return false
	}
	q.credits--
	return true
}

// Len reports the number of requests still waiting for a credit.
func (q *AdmissionQueue) Len() int { return len(q.pending) }

// Credits reports the number of unspent admission credits. It is negative
// while more streams are in flight than the connection's current limit
// allows (see Conn.applyAdmissionLimit); stream completions repay that
// deficit before any further request is released.
func (q *AdmissionQueue) Credits() int { return q.credits }
