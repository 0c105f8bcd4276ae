package crawler

import (
	"container/heap"

	"github.com/alvmarrod/graph-weaver/internal/weburl"
)

// Entry is a URL waiting in the frontier
type Entry struct {
	URL   string // fetchable form
	Key   string // canonical form
	Depth int
	seq   int
}

// entryHeap orders entries by depth, then insertion order
type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].Depth != h[j].Depth {
		return h[i].Depth < h[j].Depth
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(Entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Frontier is the depth-ordered work queue with a monotonic visited set.
// It is owned by the crawl loop and mutated only between rounds, so it takes no locks.
type Frontier struct {
	items   entryHeap
	visited map[string]bool
	next    int
}

// NewFrontier creates an empty frontier
func NewFrontier() *Frontier {
	return &Frontier{visited: make(map[string]bool)}
}

// Push enqueues url at depth unless its canonical form was already visited.
// Returns true if the entry was queued.
func (f *Frontier) Push(url string, depth int) bool {
	key := weburl.Canonical(url)
	if key == "" || f.visited[key] {
		return false
	}

	heap.Push(&f.items, Entry{URL: url, Key: key, Depth: depth, seq: f.next})
	f.next++
	return true
}

// Pop removes the shallowest entry and marks it visited.
// Entries visited since they were queued are skipped.
func (f *Frontier) Pop() (Entry, bool) {
	for f.items.Len() > 0 {
		e := heap.Pop(&f.items).(Entry)
		if f.visited[e.Key] {
			continue
		}
		f.visited[e.Key] = true
		return e, true
	}
	return Entry{}, false
}

// Peek returns the depth of the next poppable entry
func (f *Frontier) Peek() (int, bool) {
	for f.items.Len() > 0 {
		if e := f.items[0]; !f.visited[e.Key] {
			return e.Depth, true
		}
		heap.Pop(&f.items)
	}
	return 0, false
}

// PopBatch pops up to limit entries, stopping before any entry deeper than maxDepth
func (f *Frontier) PopBatch(limit, maxDepth int) []Entry {
	var batch []Entry
	for len(batch) < limit {
		depth, ok := f.Peek()
		if !ok || depth > maxDepth {
			break
		}
		e, _ := f.Pop()
		batch = append(batch, e)
	}
	return batch
}

// VisitedCount returns the number of popped URLs
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
