package hazardquery

import (
	"container/heap"
	"math"
	"sort"

	"github.com/ciprian87/roadpulse/internal/model"
)

// posEpsilon is the position tie-break window from §4.6: hits within this
// distance along the route are ordered by severity rather than by the
// (noisy, floating-point) position itself.
const posEpsilon = 1e-4

func less(a, b model.Hazard) bool {
	if math.Abs(a.PositionAlong-b.PositionAlong) <= posEpsilon {
		return a.SeverityRank() > b.SeverityRank()
	}
	return a.PositionAlong < b.PositionAlong
}

type headItem struct {
	hazard model.Hazard
	list   int
	idx    int
}

type mergeHeap []headItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return less(h[i].hazard, h[j].hazard) }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)         { *h = append(*h, x.(headItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// MergeSorted k-way merges lists that are each already sorted ascending by
// PositionAlong, adapted from the teacher's featHeap/container-heap merge
// in geojsonagg (there: merging per-shard sorted GeoJSON Feature pages;
// here: merging per-kind sorted Hazard pages), generalized from one sort
// key to the position-then-severity tuple this domain needs.
//
// Each input list is only guaranteed sorted by PositionAlong, not by the
// full (position, severity) key less() uses: the corridor queries backing
// these lists order by ST_LineLocatePoint alone, so two hazards of the
// same kind that land within posEpsilon of each other come back in
// whatever order Postgres happens to return, not severity-descending. The
// heap only compares across list heads, so it can't fix that within a
// single already-dequeued list. A final stable sort over the merged
// output re-resolves every tie via less(), including same-kind ones.
func MergeSorted(lists ...[]model.Hazard) []model.Hazard {
	total := 0
	h := make(mergeHeap, 0, len(lists))
	for li, list := range lists {
		total += len(list)
		if len(list) > 0 {
			h = append(h, headItem{hazard: list[0], list: li, idx: 0})
		}
	}
	heap.Init(&h)

	out := make([]model.Hazard, 0, total)
	for h.Len() > 0 {
		top := heap.Pop(&h).(headItem)
		out = append(out, top.hazard)
		next := top.idx + 1
		if next < len(lists[top.list]) {
			heap.Push(&h, headItem{hazard: lists[top.list][next], list: top.list, idx: next})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
