package history

// IntCounter is the common case from §3.5/§8: a window of per-second
// event counts. It wraps Counter[int64] with a plain add function so
// callers counting e.g. bytes transferred or pieces completed don't
// need to supply one themselves.
type IntCounter struct {
	c *Counter[int64]
}

// NewInt returns an IntCounter with a windowSeconds-second window.
func NewInt(windowSeconds int) *IntCounter {
	return &IntCounter{c: New[int64](windowSeconds)}
}

func addInt64(a, b int64) int64 { return a + b }

// Add records n events at time now (unix seconds or any monotonically
// non-decreasing counter the caller chooses consistently).
func (c *IntCounter) Add(now int64, n int64) { c.c.Add(now, n, addInt64) }

// Count sums events in [now-age, now].
func (c *IntCounter) Count(now, age int64) int64 { return c.c.Count(now, age, 0, addInt64) }
