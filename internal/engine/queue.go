package engine

import (
	"container/heap"
	"time"
)

// entry is a product waiting for its next refresh.
type entry struct {
	productID string
	store     string
	url       string
	stale     bool
	interval  time.Duration
	dueAt     time.Time
	index     int
}

// dueQueue is a min-heap of products ordered by due time, with an index by
// product id so entries can be rescheduled or removed in O(log n).
type dueQueue struct {
	items []*entry
	byID  map[string]*entry
}

func newDueQueue() *dueQueue {
	return &dueQueue{byID: make(map[string]*entry)}
}

func (q *dueQueue) Len() int { return len(q.items) }

func (q *dueQueue) Less(i, j int) bool {
	if q.items[i].dueAt.Equal(q.items[j].dueAt) {
		return q.items[i].productID < q.items[j].productID
	}
	return q.items[i].dueAt.Before(q.items[j].dueAt)
}

func (q *dueQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *dueQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(q.items)
	q.items = append(q.items, e)
}

func (q *dueQueue) Pop() any {
	old := q.items
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	q.items = old[:n-1]
	return e
}

// upsert inserts e or replaces the entry already queued for the product.
func (q *dueQueue) upsert(e *entry) {
	if cur, ok := q.byID[e.productID]; ok {
		cur.store = e.store
		cur.url = e.url
		cur.stale = e.stale
		cur.interval = e.interval
		cur.dueAt = e.dueAt
		heap.Fix(q, cur.index)
		return
	}
	q.byID[e.productID] = e
	heap.Push(q, e)
}

func (q *dueQueue) get(productID string) (*entry, bool) {
	e, ok := q.byID[productID]
	return e, ok
}

func (q *dueQueue) remove(productID string) {
	e, ok := q.byID[productID]
	if !ok {
		return
	}
	heap.Remove(q, e.index)
	delete(q.byID, productID)
}

// peek returns the earliest entry without removing it.
func (q *dueQueue) peek() (*entry, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// popDue removes and returns every entry due at or before now, earliest
// first.
func (q *dueQueue) popDue(now time.Time) []*entry {
	var due []*entry
	for len(q.items) > 0 && !q.items[0].dueAt.After(now) {
		e := heap.Pop(q).(*entry)
		delete(q.byID, e.productID)
		due = append(due, e)
	}
	return due
}
