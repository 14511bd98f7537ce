// Package history implements the recent-history counter (§3.5, §4.8):
// a fixed-window circular buffer of (timestamp, count) slots used by
// the session/torrent layers to answer "how many events of type T in
// the last N seconds" without an unbounded log.
package history

// Counter is a fixed N-second window circular buffer of per-second
// counts for payload type T. N is small (e.g. 60) and both Add and
// Count run in O(N); no locking is provided, matching §4.8's single-
// writer/single-reader discipline per instance.
type Counter[T any] struct {
	slots  []slot[T]
	newest int
	any    bool // at least one slot has ever been written
}

type slot[T any] struct {
	when  int64
	count T
	valid bool
}

// New returns a Counter with a window of windowSeconds slots, all
// initially empty.
func New[T any](windowSeconds int) *Counter[T] {
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	return &Counter[T]{slots: make([]slot[T], windowSeconds)}
}

// Add records n events at time now, combining with add. If the newest
// slot already holds now, n is accumulated into it via add; otherwise
// the cursor advances to a fresh slot (wrapping around the ring,
// overwriting the oldest) initialized to (now, n).
func (c *Counter[T]) Add(now int64, n T, add func(a, b T) T) {
	if c.any && c.slots[c.newest].when == now {
		c.slots[c.newest].count = add(c.slots[c.newest].count, n)
		return
	}
	if c.any {
		c.newest = (c.newest + 1) % len(c.slots)
	}
	c.slots[c.newest] = slot[T]{when: now, count: n, valid: true}
	c.any = true
}

// Count sums the counts of every slot whose timestamp falls within
// [now-age, now], using zero as the accumulator seed and add to
// combine values, so Counter works for any summable payload (int,
// uint64, a custom byte-counter struct, ...).
func (c *Counter[T]) Count(now, age int64, zero T, add func(a, b T) T) T {
	total := zero
	threshold := now - age
	for _, s := range c.slots {
		if !s.valid {
			continue
		}
		if s.when >= threshold && s.when <= now {
			total = add(total, s.count)
		}
	}
	return total
}
