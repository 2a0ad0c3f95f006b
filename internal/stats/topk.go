package stats

import (
	"container/heap"

	"spendlog/internal/core"
)

// expenseHeap is a min-heap on Cost.
type expenseHeap []core.Expense

func (h expenseHeap) Len() int           { return len(h) }
func (h expenseHeap) Less(i, j int) bool { return h[i].Cost < h[j].Cost }
func (h expenseHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expenseHeap) Push(x any) { *h = append(*h, x.(core.Expense)) }

func (h *expenseHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK keeps the k largest expenses seen so far.
type topK struct {
	k int
	h expenseHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(expenseHeap, 0, k+1)}
}

// Offer pushes e and evicts the smallest once the heap exceeds k.
func (t *topK) Offer(e core.Expense) {
	if t.k <= 0 {
		return
	}
	heap.Push(&t.h, e)
	if t.h.Len() > t.k {
		heap.Pop(&t.h)
	}
}

// Drain empties the heap and returns its contents in descending cost order.
func (t *topK) Drain() []core.Expense {
	out := make([]core.Expense, t.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(core.Expense)
	}
	return out
}
