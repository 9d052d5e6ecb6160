// Package merge implements the change-log merger (§4.I): a k-way merge by
// ascending event id over any number of already-sorted streams. It is a
// standalone wrapper around the same primitive §4.H's optimizer uses for
// its own final step, for server-side replay across per-kind tables.
package merge

import (
	"container/heap"

	"github.com/hcs-sync/engine/pkg/changeevent"
)

// Entry pairs a change-record id with its event, the unit every stream in
// this package operates on.
type Entry struct {
	ID    uint64
	Event changeevent.ChangeEvent
}

// item is a heap element: the next unconsumed entry of one input stream.
type item struct {
	entry       Entry
	stream      int
	indexInside int
}

type itemHeap []item

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	return h[i].entry.ID < h[j].entry.ID
}
func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(item))
}
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	popped := old[n-1]
	*h = old[:n-1]
	return popped
}

// Merge interleaves streams, each already sorted ascending by Entry.ID,
// into a single stream sorted ascending by id. Runtime is O(n*log(k)) for
// n total entries across k streams, via a binary min-heap keyed on id;
// this meets the O(n*k) bound §4.H requires with room to spare.
func Merge(streams [][]Entry) []Entry {
	h := &itemHeap{}
	heap.Init(h)

	for streamIndex, stream := range streams {
		if len(stream) > 0 {
			heap.Push(h, item{entry: stream[0], stream: streamIndex, indexInside: 0})
		}
	}

	var result []Entry
	for h.Len() > 0 {
		next := heap.Pop(h).(item)
		result = append(result, next.entry)

		nextIndex := next.indexInside + 1
		if nextIndex < len(streams[next.stream]) {
			heap.Push(h, item{entry: streams[next.stream][nextIndex], stream: next.stream, indexInside: nextIndex})
		}
	}

	return result
}
